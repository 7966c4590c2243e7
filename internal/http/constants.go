package http

import "time"

const (
	HeaderRequestID = "X-Request-ID"

	ctxKeyRequestID = "request_id"
)

// Error texts
const (
	HTTPErrorInvalidJSONText    = "invalid JSON"
	HTTPErrorForbiddenText      = "forbidden"
	HTTPErrorForbiddenHostText  = "forbidden host"
	HTTPErrorMissingFileText    = "missing file"
	HTTPErrorInvalidAddressText = "invalid token address"
	HTTPErrorNoTokenText        = "no token address given and none deployed on this network"
	HTTPErrorUploadDisabledText = "logo upload is not configured"
)

// Success messages returned to the UI.
const (
	MsgDeployed         = "Contract deployed successfully!"
	MsgSwapped          = "Swap successful!"
	MsgLiquidityAdded   = "Liquidity added successfully!"
	MsgApproved         = "Approval successful!"
	MsgRoyaltyPaid      = "Royalty paid successfully!"
	MsgNetworkSwitched  = "Network switched"
	MsgWalletDisconnect = "Wallet disconnected"
)

const (
	// Upper bound for multipart logo uploads.
	MaxUploadBytes = 10 << 20

	ReadHeaderTimeout = 10 * time.Second
	ShutdownTimeout   = 5 * time.Second
)
