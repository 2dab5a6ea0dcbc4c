package logging

import (
	"net"
	"strings"
	"testing"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"error", SyslogError},
		{"warning", SyslogWarning},
		{"info", SyslogInfo},
		{"unknown", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := ParseSeverity(tt.name); got != tt.want {
			t.Errorf("ParseSeverity(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestShouldSend_NoFilter(t *testing.T) {
	c := &SyslogClient{MinSeverity: 0}
	if !c.ShouldSend(SyslogError) {
		t.Error("no filter should pass error")
	}
	if !c.ShouldSend(SyslogWarning) {
		t.Error("no filter should pass warning")
	}
	if !c.ShouldSend(SyslogInfo) {
		t.Error("no filter should pass info")
	}
}

func TestShouldSend_ErrorOnly(t *testing.T) {
	c := &SyslogClient{MinSeverity: SyslogError}
	if !c.ShouldSend(SyslogError) {
		t.Error("error filter should pass error")
	}
	if c.ShouldSend(SyslogWarning) {
		t.Error("error filter should block warning")
	}
	if c.ShouldSend(SyslogInfo) {
		t.Error("error filter should block info")
	}
}

func TestShouldSend_WarningAndAbove(t *testing.T) {
	c := &SyslogClient{MinSeverity: SyslogWarning}
	if !c.ShouldSend(SyslogError) {
		t.Error("warning filter should pass error (higher severity)")
	}
	if !c.ShouldSend(SyslogWarning) {
		t.Error("warning filter should pass warning")
	}
	if c.ShouldSend(SyslogInfo) {
		t.Error("warning filter should block info")
	}
}

func TestSyslogSendReceive(t *testing.T) {
	// Start a UDP listener
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()

	addr := pc.LocalAddr().(*net.UDPAddr)

	client, err := NewSyslogClient("127.0.0.1", addr.Port)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	if err := client.Send(SyslogWarning, "missing config: ntp server 10.0.0.1:sw-01"); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 4096)
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatal(err)
	}

	got := string(buf[:n])
	// Priority = facility*8 + severity = 16*8 + 4 = 132
	if got[:5] != "<132>" {
		t.Errorf("unexpected priority prefix: %q", got[:10])
	}
	if !strings.Contains(got, "confaudit[") {
		t.Errorf("process tag not found in %q", got)
	}
	if !strings.Contains(got, ": missing config: ntp server 10.0.0.1:sw-01") {
		t.Errorf("message not found in %q", got)
	}
}

func TestSyslogSendEvent(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()

	addr := pc.LocalAddr().(*net.UDPAddr)

	client, err := NewSyslogClient("127.0.0.1", addr.Port)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	recv := func() string {
		buf := make([]byte, 4096)
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			t.Fatal(err)
		}
		return string(buf[:n])
	}

	missing := EventRecord{
		Type:     EventFindingMissing,
		Hostname: "sw-01",
		Section:  "ntp",
		Message:  "ntp server 10.0.0.1",
	}
	if err := client.SendEvent(&missing); err != nil {
		t.Fatal(err)
	}
	got := recv()
	if got[:5] != "<132>" {
		t.Errorf("missing finding should go out at warning, got %q", got[:10])
	}
	if !strings.Contains(got, "FINDING_MISSING device=sw-01 section=ntp ntp server 10.0.0.1") {
		t.Errorf("structured fields not found in %q", got)
	}

	extra := EventRecord{
		Type:     EventFindingExtra,
		Hostname: "sw-01",
		Section:  "vlan",
		Message:  "vlan 99",
	}
	if err := client.SendEvent(&extra); err != nil {
		t.Fatal(err)
	}
	got = recv()
	if got[:5] != "<134>" {
		t.Errorf("additional finding should go out at info, got %q", got[:10])
	}
	if !strings.Contains(got, "FINDING_EXTRA device=sw-01 section=vlan vlan 99") {
		t.Errorf("structured fields not found in %q", got)
	}
}

func TestSyslogSendEventRespectsFilter(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()

	addr := pc.LocalAddr().(*net.UDPAddr)

	client, err := NewSyslogClient("127.0.0.1", addr.Port)
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()
	client.MinSeverity = SyslogWarning

	// Info-level event is dropped before hitting the wire.
	extra := EventRecord{Type: EventFindingExtra, Hostname: "sw-01", Section: "vlan", Message: "vlan 99"}
	if err := client.SendEvent(&extra); err != nil {
		t.Fatal(err)
	}
	missing := EventRecord{Type: EventFindingMissing, Hostname: "sw-01", Section: "ntp", Message: "ntp server 10.0.0.1"}
	if err := client.SendEvent(&missing); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 4096)
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(buf[:n]); !strings.Contains(got, "FINDING_MISSING") {
		t.Errorf("first datagram should be the warning event, got %q", got)
	}
}
