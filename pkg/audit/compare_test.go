package audit

import (
	"reflect"
	"testing"
)

func TestCompareMissing(t *testing.T) {
	current := []string{"ntp server 10.0.0.1"}
	required := []string{
		"ntp server 10.0.0.1",
		"ntp source Loopback0",
		"ntp server [x.x.x.x]", // placeholder: never reported missing
	}

	missing, extra := Compare(current, required, "sw-01", "ntp")

	wantMissing := []string{"missing config: ntp source Loopback0:sw-01"}
	if !reflect.DeepEqual(missing, wantMissing) {
		t.Errorf("missing = %v, want %v", missing, wantMissing)
	}
	if len(extra) != 0 {
		t.Errorf("extra = %v, want none", extra)
	}
}

func TestCompareMissingIsCaseAndWhitespaceInsensitive(t *testing.T) {
	current := []string{"  NTP Server 10.0.0.1  "}
	required := []string{"ntp server 10.0.0.1"}

	missing, _ := Compare(current, required, "sw-01", "ntp")
	if len(missing) != 0 {
		t.Errorf("missing = %v, want none", missing)
	}
}

func TestCompareExtra(t *testing.T) {
	current := []string{
		"ntp server 10.0.0.1",
		"ntp server 172.16.0.5", // suppressed by placeholder template
		"ntp peer 192.168.1.1",  // genuine extra
	}
	required := []string{
		"ntp server 10.0.0.1",
		"ntp server [x.x.x.x]",
	}

	missing, extra := Compare(current, required, "sw-01", "ntp")

	if len(missing) != 0 {
		t.Errorf("missing = %v, want none", missing)
	}
	wantExtra := []string{"additional config: ntp peer 192.168.1.1:sw-01"}
	if !reflect.DeepEqual(extra, wantExtra) {
		t.Errorf("extra = %v, want %v", extra, wantExtra)
	}
}

func TestCompareBoilerplateSuppression(t *testing.T) {
	current := []string{
		"Building configuration...",
		"Current configuration : 8192 bytes",
		"version 15.2",
		"service timestamps debug datetime msec",
		"ip route 0.0.0.0 0.0.0.0 10.0.0.254 version-aware", // "version" substring
	}

	_, extra := Compare(current, []string{"ntp server 10.0.0.1"}, "sw-01", "run_config")
	if len(extra) != 0 {
		t.Errorf("boilerplate lines reported as extra: %v", extra)
	}
}

func TestCompareEmptyInputs(t *testing.T) {
	missing, extra := Compare(nil, nil, "sw-01", "ntp")
	if len(missing) != 0 || len(extra) != 0 {
		t.Errorf("empty inputs: missing=%v extra=%v", missing, extra)
	}

	missing, extra = Compare(nil, []string{"ntp server 10.0.0.1"}, "sw-01", "ntp")
	want := []string{"missing config: ntp server 10.0.0.1:sw-01"}
	if !reflect.DeepEqual(missing, want) {
		t.Errorf("missing = %v, want %v", missing, want)
	}
	if len(extra) != 0 {
		t.Errorf("extra = %v, want none", extra)
	}
}

func TestCompareIdempotent(t *testing.T) {
	current := []string{"vlan 10", "vlan 20", "vlan 99"}
	required := []string{"vlan 10", "vlan 30"}

	m1, e1 := Compare(current, required, "sw-01", "vlan")
	m2, e2 := Compare(current, required, "sw-01", "vlan")

	if !reflect.DeepEqual(m1, m2) || !reflect.DeepEqual(e1, e2) {
		t.Errorf("repeated comparison differs: %v/%v vs %v/%v", m1, e1, m2, e2)
	}
}

func TestCompareFindingOrder(t *testing.T) {
	current := []string{"zzz extra-b", "aaa extra-a"}
	required := []string{"req-b line", "req-a line"}

	missing, extra := Compare(current, required, "sw-01", "misc")

	wantMissing := []string{
		"missing config: req-b line:sw-01",
		"missing config: req-a line:sw-01",
	}
	wantExtra := []string{
		"additional config: zzz extra-b:sw-01",
		"additional config: aaa extra-a:sw-01",
	}
	if !reflect.DeepEqual(missing, wantMissing) {
		t.Errorf("missing order = %v, want template order %v", missing, wantMissing)
	}
	if !reflect.DeepEqual(extra, wantExtra) {
		t.Errorf("extra order = %v, want input order %v", extra, wantExtra)
	}
}
