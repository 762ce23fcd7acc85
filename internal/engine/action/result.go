/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

// Package action holds the node and cluster action runtimes: the code a
// worker executes once the scheduler hands it a claimed action.
package action

// ResultCode is the outcome a runtime body reports back to its worker.
type ResultCode string

const (
	// ResultOK means the body completed and the action may commit.
	ResultOK ResultCode = "OK"
	// ResultError is a permanent failure; the action goes FAILED.
	ResultError ResultCode = "ERROR"
	// ResultCancel means a cooperative cancel was observed.
	ResultCancel ResultCode = "CANCEL"
	// ResultTimeout means the action deadline expired mid-flight.
	ResultTimeout ResultCode = "TIMEOUT"
	// ResultRetry asks the scheduler to requeue the action unchanged.
	// It is not a failure.
	ResultRetry ResultCode = "RETRY"
	// ResultWaiting parks the action until its dependent set settles.
	// The worker slot is released; the scheduler re-dispatches the action
	// when the last child reaches a terminal status.
	ResultWaiting ResultCode = "WAITING"
)

// Result pairs a code with a human-readable reason.
type Result struct {
	Code   ResultCode
	Reason string
}

func ok() Result                 { return Result{Code: ResultOK} }
func fail(reason string) Result  { return Result{Code: ResultError, Reason: reason} }
func retry(reason string) Result { return Result{Code: ResultRetry, Reason: reason} }
func waiting() Result            { return Result{Code: ResultWaiting, Reason: "Waiting for depended actions"} }
