package constants

const (
	AppName        = "tickertool"
	WalletFile     = "wallet.json"
	NetworksFile   = "networks.json"
	StorageFile    = "storage.json"
	StorageSQLite  = "storage.db"
	ConfigFileName = "config"

	SchemaV1      = 1
	FilePerm      = 0o600
	DirectoryPerm = 0o700

	// AAD for the encrypted signer key file.
	WalletAAD = "tickertool:wallet:v1"

	// Storage key prefix for deployment records, one per chain id.
	DeploymentKeyPrefix = "deployed_To_"

	// Storage key remembering the last network switched to.
	ActiveNetworkKey = "active_network"

	EtherDecimals = 18

	DefaultSlippagePercent     = 15
	DefaultBuyCapSupplyPercent = 5
	DefaultBuyCapSafetyPercent = 75
	DefaultMinLiquidityETH     = 1

	DefaultIPFSGateway = "https://gateway.pinata.cloud/ipfs/"
	IPFSScheme         = "ipfs://"

	EnvFolderVar = "TICKER_ENV"
)
