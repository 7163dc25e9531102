// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package notify posts a deployment summary to a Slack incoming webhook.
package notify
