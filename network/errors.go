package network

import "errors"

var (
	// ErrConnectionFailed indicates the node could not be reached.
	ErrConnectionFailed = errors.New("network: connection failed")

	// ErrBroadcastRejected indicates the node refused a payout transaction.
	ErrBroadcastRejected = errors.New("network: broadcast rejected")

	// ErrInvalidResponse indicates the node answered with something unparseable.
	ErrInvalidResponse = errors.New("network: invalid response")

	// ErrRPCConfig indicates RPC connection settings are missing or malformed.
	ErrRPCConfig = errors.New("network: invalid RPC configuration")
)
