package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleConfig = `
[Enterprise]
Name = "IQ Demo"
AssetSymbol = "IQ"
AssetDecimals = 6
OwnerAddress = "0x0000000000000000000000000000000000000001"
VaultAddress = "0x0000000000000000000000000000000000000002"
GCFeeBps = 100

[[Services]]
Name = "Power A"
Symbol = "PWA"
GapHalvingPeriod = 86400
BaseRateNum = 1
BaseRateDen = 86400
MinRentalPeriod = 3600
MaxRentalPeriod = 2592000
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "enterprise.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Enterprise.StreamingReserveHalvingPeriod != 7*24*3600 {
		t.Fatalf("streaming halving = %d, want one week", cfg.Enterprise.StreamingReserveHalvingPeriod)
	}
	if cfg.Enterprise.RenterOnlyReturnPeriod != 12*3600 {
		t.Fatalf("renter window = %d, want 12h", cfg.Enterprise.RenterOnlyReturnPeriod)
	}
	svc := cfg.Services[0]
	if svc.Curve != "rational" {
		t.Fatalf("curve = %q, want rational", svc.Curve)
	}
	if svc.BaseAssetSymbol != "IQ" || svc.BaseAssetDecimals != 6 {
		t.Fatalf("base asset = %s/%d, want enterprise asset", svc.BaseAssetSymbol, svc.BaseAssetDecimals)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	body := sampleConfig + "\nBogus = true\n"
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("unknown key should be rejected")
	}
}

func TestLoadRejectsBadAddress(t *testing.T) {
	body := strings.Replace(sampleConfig, "0x0000000000000000000000000000000000000001", "not-an-address", 1)
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("bad owner address should be rejected")
	}
}

func TestLoadRejectsUnknownCurve(t *testing.T) {
	body := sampleConfig + "\nCurve = \"cubic\"\n"
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("unknown curve should be rejected")
	}
}

func TestBuildEngine(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	eng, err := cfg.BuildEngine(nil)
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	if eng.Name() != "IQ Demo" {
		t.Fatalf("name = %q, want IQ Demo", eng.Name())
	}
	if _, err := eng.Service(1); err != nil {
		t.Fatalf("service 1: %v", err)
	}
}
