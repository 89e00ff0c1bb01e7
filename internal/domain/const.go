package domain

const (
	// PKPMintedEventSignature is the canonical signature of the PKP NFT mint event
	PKPMintedEventSignature = "PKPMinted(uint256,bytes)"

	// GetEthAddressMethod is the PKP NFT view function resolving a token to its address
	GetEthAddressMethod = "getEthAddress"

	// Blockchain constants
	ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"
)
