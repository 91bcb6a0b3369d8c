package builders

import (
	"github.com/ethereum/go-ethereum/common"
)

const DEFAULT_TEST_CHAIN_ID = uint32(31337)

// deterministic identities for tests, index 0 is the admin
func AddressForTests(index int) common.Address {
	var address common.Address
	address[0] = 0x5c
	address[common.AddressLength-2] = byte(index >> 8)
	address[common.AddressLength-1] = byte(index)
	return address
}

var (
	AdminAddress        = AddressForTests(0)
	ManufacturerAddress = AddressForTests(1)
	DistributorAddress  = AddressForTests(2)
	RetailerAddress     = AddressForTests(3)
	CustomerAddress     = AddressForTests(4)
)
