/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package models

// actionTransitions is the authoritative action status machine.  Stores
// reject transitions not listed here; terminal statuses have no entries.
var actionTransitions = map[string][]string{
	ActionStatusInit:      {ActionStatusReady, ActionStatusCancelled},
	ActionStatusReady:     {ActionStatusRunning, ActionStatusCancelled},
	ActionStatusWaiting:   {ActionStatusReady, ActionStatusRunning, ActionStatusFailed, ActionStatusCancelled},
	ActionStatusRunning:   {ActionStatusReady, ActionStatusSucceeded, ActionStatusFailed, ActionStatusCancelled, ActionStatusSuspended, ActionStatusWaiting},
	ActionStatusSuspended: {ActionStatusRunning, ActionStatusCancelled},
}

// ValidActionTransition reports whether an action may move from one status
// to the other.
func ValidActionTransition(from, to string) bool {
	for _, next := range actionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
