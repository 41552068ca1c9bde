package state

var (
	licensePrefix          = []byte("license:")
	licenseBalancePrefix   = []byte("license-balance:")
	licenseAllowancePrefix = []byte("license-allowance:")
	licenseNonceKeyBytes   = []byte("license-nonce")
	tokenPrefix            = []byte("token:")
	tokenBalancePrefix     = []byte("token-balance:")
	tokenAllowancePrefix   = []byte("token-allowance:")
	tokenNonceKeyBytes     = []byte("token-nonce")
	storeConfigKeyBytes    = []byte("store-config")
	listingPrefix          = []byte("store-listing:")
	whitelistPrefix        = []byte("store-whitelist:")
)
