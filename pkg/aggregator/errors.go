// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package aggregator

import "errors"

var (
	// ErrCorruptPass is returned when a stored pass cannot be decoded.
	ErrCorruptPass = errors.New("corrupt aggregation pass")

	// ErrUnknownSource is returned for requests naming a source that does not exist.
	ErrUnknownSource = errors.New("unknown offer source")
)
