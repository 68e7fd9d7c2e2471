package api

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"blog-backend/internal/auth"
	"blog-backend/internal/database"
)

// User facing notices
const (
	msgLoginRequired        = "Login required"
	msgCredentialsRequired  = "Username and password is required."
	msgIncorrectCredentials = "Incorrect username or password."
	msgTitleRequired        = "Title is required."
	msgSystemError          = "System error, please try again later."
	msgFormExpired          = "Form expired, please submit it again."
	msgPasswordChanged      = "Password change completed, you can now login with new password."
)

var validationNotices = map[error]string{
	auth.ErrCredentialsRequired:      msgCredentialsRequired,
	auth.ErrInvalidCredentials:       msgIncorrectCredentials,
	auth.ErrCurrentPasswordRequired:  "Current password is required.",
	auth.ErrNewPasswordRequired:      "New password is required.",
	auth.ErrConfirmPasswordRequired:  "Confirm new password is required.",
	auth.ErrPasswordMismatch:         "New passwords do not match.",
	auth.ErrPasswordUnchanged:        "New passwords is the same as current password.",
	auth.ErrCurrentPasswordIncorrect: "Current password is incorrect.",
	database.ErrTitleRequired:        msgTitleRequired,
}

// validationNotice maps a validation error to its notice. ok is false for
// anything else, which callers treat as a system error.
func validationNotice(err error) (notice string, ok bool) {
	for target, msg := range validationNotices {
		if errors.Is(err, target) {
			return msg, true
		}
	}
	return "", false
}

// noticeNameLimit bounds the username echoed in a notice, the notice
// cookie is dropped by browsers past about 4KB
const noticeNameLimit = 64

func registeredNotice(username string) string {
	return fmt.Sprintf("User registration completed, you can now login with %s", noticeName(username))
}

func alreadyRegisteredNotice(username string) string {
	return fmt.Sprintf("User %s is already registered.", noticeName(username))
}

func noticeName(username string) string {
	if utf8.RuneCountInString(username) <= noticeNameLimit {
		return username
	}
	return string([]rune(username)[:noticeNameLimit]) + "..."
}
