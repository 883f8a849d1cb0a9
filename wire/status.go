package wire

import "strconv"

// StatusCode is the numeric status of a JSON Wire Protocol response.
type StatusCode int

// Wire protocol status codes.
const (
	StatusSuccess                   StatusCode = 0
	StatusNoSuchElement             StatusCode = 7
	StatusNoSuchFrame               StatusCode = 8
	StatusUnknownCommand            StatusCode = 9
	StatusStaleElementReference     StatusCode = 10
	StatusElementNotVisible         StatusCode = 11
	StatusInvalidElementState       StatusCode = 12
	StatusUnknownError              StatusCode = 13
	StatusElementIsNotSelectable    StatusCode = 15
	StatusJavaScriptError           StatusCode = 17
	StatusXPathLookupError          StatusCode = 19
	StatusTimeout                   StatusCode = 21
	StatusNoSuchWindow              StatusCode = 23
	StatusInvalidCookieDomain       StatusCode = 24
	StatusUnableToSetCookie         StatusCode = 25
	StatusUnexpectedAlertOpen       StatusCode = 26
	StatusNoAlertOpenError          StatusCode = 27
	StatusScriptTimeout             StatusCode = 28
	StatusInvalidElementCoordinates StatusCode = 29
	StatusIMENotAvailable           StatusCode = 30
	StatusIMEEngineActivationFailed StatusCode = 31
	StatusInvalidSelector           StatusCode = 32
)

type statusInfo struct {
	summary     string
	description string
}

//nolint:gochecknoglobals
var statuses = map[StatusCode]statusInfo{
	StatusSuccess: {
		"Success", "The command executed successfully.",
	},
	StatusNoSuchElement: {
		"NoSuchElement", "An element could not be located on the page using the given search parameters.",
	},
	StatusNoSuchFrame: {
		"NoSuchFrame", "A request to switch to a frame could not be satisfied because the frame could not be found.",
	},
	StatusUnknownCommand: {
		"UnknownCommand", "The requested resource could not be found, or a request was received " +
			"using an HTTP method that is not supported by the mapped resource.",
	},
	StatusStaleElementReference: {
		"StaleElementReference", "An element command failed because the referenced element is no longer attached to the DOM.",
	},
	StatusElementNotVisible: {
		"ElementNotVisible", "An element command could not be completed because the element is not visible on the page.",
	},
	StatusInvalidElementState: {
		"InvalidElementState", "An element command could not be completed because the element is in an " +
			"invalid state (e.g. attempting to click a disabled element).",
	},
	StatusUnknownError: {
		"UnknownError", "An unknown server-side error occurred while processing the command.",
	},
	StatusElementIsNotSelectable: {
		"ElementIsNotSelectable", "An attempt was made to select an element that cannot be selected.",
	},
	StatusJavaScriptError: {
		"JavaScriptError", "An error occurred while executing user supplied JavaScript.",
	},
	StatusXPathLookupError: {
		"XPathLookupError", "An error occurred while searching for an element by XPath.",
	},
	StatusTimeout: {
		"Timeout", "An operation did not complete before its timeout expired.",
	},
	StatusNoSuchWindow: {
		"NoSuchWindow", "A request to switch to a different window could not be satisfied because the window could not be found.",
	},
	StatusInvalidCookieDomain: {
		"InvalidCookieDomain", "An illegal attempt was made to set a cookie under a different domain than the current page.",
	},
	StatusUnableToSetCookie: {
		"UnableToSetCookie", "A request to set a cookie's value could not be satisfied.",
	},
	StatusUnexpectedAlertOpen: {
		"UnexpectedAlertOpen", "A modal dialog was open, blocking this operation",
	},
	StatusNoAlertOpenError: {
		"NoAlertOpenError", "An attempt was made to operate on a modal dialog when one was not open.",
	},
	StatusScriptTimeout: {
		"ScriptTimeout", "A script did not complete before its timeout expired.",
	},
	StatusInvalidElementCoordinates: {
		"InvalidElementCoordinates", "The coordinates provided to an interactions operation are invalid.",
	},
	StatusIMENotAvailable: {
		"IMENotAvailable", "IME was not available.",
	},
	StatusIMEEngineActivationFailed: {
		"IMEEngineActivationFailed", "An IME engine could not be started.",
	},
	StatusInvalidSelector: {
		"InvalidSelector", "Argument was an invalid selector (e.g. XPath/CSS).",
	},
}

// Known reports whether c is one of the documented status codes.
func (c StatusCode) Known() bool {
	_, ok := statuses[c]
	return ok
}

// String returns the summary name of the status, e.g. "NoSuchElement".
func (c StatusCode) String() string {
	if info, ok := statuses[c]; ok {
		return info.summary
	}
	return "StatusCode(" + strconv.Itoa(int(c)) + ")"
}

// Description returns the human readable meaning of the status.
func (c StatusCode) Description() string {
	return statuses[c].description
}

// IsElementMissingOrInvisible reports whether the status is one of the
// expected conditions while a page is still settling: the element is not
// there yet, or it is there but not visible.
func (c StatusCode) IsElementMissingOrInvisible() bool {
	return c == StatusNoSuchElement || c == StatusElementNotVisible
}
