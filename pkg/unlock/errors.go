// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package unlock

import "errors"

var (
	// ErrInvalidConfig indicates that a feature configuration is invalid.
	ErrInvalidConfig = errors.New("invalid feature configuration")

	// ErrUnknownPolicy indicates that a flow policy type is not registered.
	ErrUnknownPolicy = errors.New("unknown flow policy")

	// ErrCorruptState is returned when stored stage state cannot be decoded.
	ErrCorruptState = errors.New("corrupt stage state")
)
