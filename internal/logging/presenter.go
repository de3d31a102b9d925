// Copyright (c) 2025 QueryDesk
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"strings"
)

// PresentError formats an error for user display with masking. The context
// is dropped when the message already starts with it.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	msg := Mask(err.Error())
	if context == "" || strings.HasPrefix(msg, context) {
		return msg
	}
	return context + ": " + msg
}
