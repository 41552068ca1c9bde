package core

import (
	"errors"
	"math/big"
	"testing"

	"hashupcore/native/license"
	"hashupcore/native/store"
	"hashupcore/storage"
)

var (
	storeOwner  = [20]byte{0x31}
	gameCreator = [20]byte{0x32}
	coinMinter  = [20]byte{0x33}
	marketplace = [20]byte{0x34}
	buyer       = [20]byte{0x35}
)

func newTestNode(t *testing.T, db storage.Database) *Node {
	t.Helper()
	node, err := NewNode(db, storeOwner, nil, nil)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

// setupMarket drives the full listing setup: a license escrowed into store
// custody, a funded buyer with the custody account approved, a whitelisted
// marketplace and the payment token configured.
func setupMarket(t *testing.T, node *Node, creatorFee uint32, price int64) [20]byte {
	t.Helper()
	custody := StoreAccount()

	lic, err := node.LicenseCreate(gameCreator, "Game", "GME", "ipfs://meta", big.NewInt(10_000_000), creatorFee, custody)
	if err != nil {
		t.Fatalf("license create: %v", err)
	}
	if err := node.LicenseApprove(lic.Address, gameCreator, custody, big.NewInt(1_000)); err != nil {
		t.Fatalf("approve custody: %v", err)
	}
	if _, err := node.StoreSendLicense(gameCreator, lic.Address, big.NewInt(price), big.NewInt(1_000), 5); err != nil {
		t.Fatalf("send license: %v", err)
	}

	tok, err := node.TokenCreate(coinMinter, "HashCoin", "HASH", big.NewInt(1_000_000))
	if err != nil {
		t.Fatalf("token create: %v", err)
	}
	if err := node.TokenTransfer(tok.Address, coinMinter, buyer, big.NewInt(price)); err != nil {
		t.Fatalf("fund buyer: %v", err)
	}
	if err := node.TokenApprove(tok.Address, buyer, custody, big.NewInt(price)); err != nil {
		t.Fatalf("buyer approval: %v", err)
	}
	if err := node.StoreSetPaymentToken(storeOwner, tok.Address); err != nil {
		t.Fatalf("set payment token: %v", err)
	}
	if _, err := node.StoreToggleWhitelisted(storeOwner, marketplace); err != nil {
		t.Fatalf("whitelist: %v", err)
	}

	return lic.Address
}

func TestPurchaseLifecycle(t *testing.T) {
	node := newTestNode(t, storage.NewMemDB())
	licenseAddr := setupMarket(t, node, 0, 1_000)

	cfg, err := node.StoreInfo()
	if err != nil {
		t.Fatalf("store info: %v", err)
	}
	if cfg.HashupFee != store.DefaultHashupFee {
		t.Fatalf("unexpected hashup fee %d", cfg.HashupFee)
	}

	listing, err := node.StoreBuyLicense(marketplace, buyer, licenseAddr)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if listing.Inventory.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("inventory should drop by one license, got %s", listing.Inventory)
	}

	// Price 1000 splits 10% to the store owner, 5% to the marketplace and the
	// remainder to the creator.
	tokenAddr := cfg.PaymentToken
	for _, tc := range []struct {
		holder [20]byte
		want   int64
		label  string
	}{
		{storeOwner, 100, "store owner"},
		{marketplace, 50, "marketplace"},
		{gameCreator, 850, "creator"},
		{buyer, 0, "buyer"},
		{StoreAccount(), 0, "custody"},
	} {
		got, err := node.TokenBalanceOf(tokenAddr, tc.holder)
		if err != nil {
			t.Fatalf("balance of %s: %v", tc.label, err)
		}
		if got.Cmp(big.NewInt(tc.want)) != 0 {
			t.Fatalf("%s cut: want %d got %s", tc.label, tc.want, got)
		}
	}

	units, err := node.LicenseBalanceOf(licenseAddr, buyer)
	if err != nil {
		t.Fatalf("license balance: %v", err)
	}
	if units.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("buyer should hold one whole license, got %s", units)
	}
}

func TestPurchaseReleaseCarriesCreatorFee(t *testing.T) {
	node := newTestNode(t, storage.NewMemDB())
	licenseAddr := setupMarket(t, node, 200, 1_000)

	if _, err := node.StoreBuyLicense(marketplace, buyer, licenseAddr); err != nil {
		t.Fatalf("buy: %v", err)
	}
	// The release out of custody is an ordinary transfer, so the 20% creator
	// fee is carved out of the 100 minor units.
	units, _ := node.LicenseBalanceOf(licenseAddr, buyer)
	if units.Cmp(big.NewInt(80)) != 0 {
		t.Fatalf("buyer should receive the post-fee units, got %s", units)
	}
	info, _ := node.LicenseInfo(licenseAddr)
	if info.FeeCounter.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("fee counter should record the release fee, got %s", info.FeeCounter)
	}
}

func TestEscrowBypassesClosedSale(t *testing.T) {
	node := newTestNode(t, storage.NewMemDB())
	custody := StoreAccount()

	lic, err := node.LicenseCreate(gameCreator, "Game", "GME", "ipfs://meta", big.NewInt(10_000_000), 200, custody)
	if err != nil {
		t.Fatalf("license create: %v", err)
	}
	// The sale gate is still closed: third parties cannot spend allowances,
	// but the configured store can escrow inventory.
	if err := node.LicenseApprove(lic.Address, gameCreator, marketplace, big.NewInt(100)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	err = node.LicenseTransferFrom(marketplace, lic.Address, gameCreator, marketplace, big.NewInt(100))
	if !errors.Is(err, license.ErrSaleClosed) {
		t.Fatalf("expected closed gate, got %v", err)
	}
	if err := node.LicenseApprove(lic.Address, gameCreator, custody, big.NewInt(1_000)); err != nil {
		t.Fatalf("approve custody: %v", err)
	}
	if _, err := node.StoreSendLicense(gameCreator, lic.Address, big.NewInt(10), big.NewInt(1_000), 0); err != nil {
		t.Fatalf("escrow while closed: %v", err)
	}
}

func TestStateSurvivesRestart(t *testing.T) {
	db := storage.NewMemDB()
	node := newTestNode(t, db)
	licenseAddr := setupMarket(t, node, 0, 1_000)

	if err := node.StoreSetHashupFee(storeOwner, 7); err != nil {
		t.Fatalf("set fee: %v", err)
	}

	// A node built over the same database must see the same world, and its
	// bootstrap must not reset the config.
	restarted, err := NewNode(db, [20]byte{0xaa}, nil, nil)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	cfg, err := restarted.StoreInfo()
	if err != nil {
		t.Fatalf("store info: %v", err)
	}
	if cfg.Owner != storeOwner || cfg.HashupFee != 7 {
		t.Fatalf("config lost on restart: %+v", cfg)
	}
	info, err := restarted.LicenseInfo(licenseAddr)
	if err != nil {
		t.Fatalf("license info: %v", err)
	}
	if info.Name != "Game" {
		t.Fatalf("license lost on restart")
	}
	listing, err := restarted.StoreListing(licenseAddr)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if listing.Inventory.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("listing lost on restart, got %s", listing.Inventory)
	}
	whitelisted, err := restarted.StoreIsWhitelisted(marketplace)
	if err != nil || !whitelisted {
		t.Fatalf("whitelist lost on restart: %v %v", whitelisted, err)
	}
}

func TestStoreAccountIsStable(t *testing.T) {
	if StoreAccount() != StoreAccount() {
		t.Fatalf("custody account must be deterministic")
	}
	if StoreAccount() == ([20]byte{}) {
		t.Fatalf("custody account must not be the zero address")
	}
}
