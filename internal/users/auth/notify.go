// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"

	"github.com/taibuivan/sessiongate/internal/platform/ctxutil"
)

// # Out-of-band Delivery

// Notifier delivers single-use links to the account owner.
type Notifier interface {
	SendVerification(ctx context.Context, user *User, token string) error
	SendPasswordReset(ctx context.Context, user *User, token string) error
}

// LogNotifier writes tokens to the request logger. Development only.
type LogNotifier struct{}

// SendVerification logs the verification token.
func (LogNotifier) SendVerification(ctx context.Context, user *User, token string) error {
	ctxutil.GetLogger(ctx).InfoContext(ctx, "auth_verification_issued",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
		slog.String("token", token),
	)
	return nil
}

// SendPasswordReset logs the reset token.
func (LogNotifier) SendPasswordReset(ctx context.Context, user *User, token string) error {
	ctxutil.GetLogger(ctx).InfoContext(ctx, "auth_password_reset_issued",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
		slog.String("token", token),
	)
	return nil
}
