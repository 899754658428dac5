package audit

import (
	"os"
	"path/filepath"
	"testing"
)

// sessionDecisions is a typical stretch of gateway traffic: mostly allowed
// menu actions, a denied command and an intruder lockout.
var sessionDecisions = []Entry{
	{OperatorID: 1001, Kind: "screenshot", Decision: DecisionAllow},
	{OperatorID: 1001, Kind: "shell-exec", Resource: "df -h", Decision: DecisionAllow},
	{OperatorID: 1001, Kind: "shell-exec", Resource: "sudo reboot", Decision: DecisionDeny, Reason: "denylisted command pattern: reboot"},
	{OperatorID: 1001, Kind: "file-upload", Resource: "setup.exe", Decision: DecisionDeny, Reason: "denylisted extension: .exe"},
	{OperatorID: 666, Decision: DecisionLockout, Reason: "more than 5 unauthorized attempts"},
}

func BenchmarkRecord(b *testing.B) {
	l, err := Open(filepath.Join(b.TempDir(), "bench.jsonl"))
	if err != nil {
		b.Fatal(err)
	}
	defer l.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Record(sessionDecisions[i%len(sessionDecisions)])
	}
}

func benchVerify(b *testing.B, n int) {
	b.Helper()
	path := filepath.Join(b.TempDir(), "bench.jsonl")
	l, err := Open(path)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < n; i++ {
		l.Record(sessionDecisions[i%len(sessionDecisions)])
	}
	l.Close()

	info, _ := os.Stat(path)
	b.ResetTimer()
	b.SetBytes(info.Size())

	for i := 0; i < b.N; i++ {
		result := Verify(path)
		if !result.Valid || result.Lockouts != n/len(sessionDecisions) {
			b.Fatalf("unexpected result: %+v", result)
		}
	}
}

func BenchmarkVerify_1000(b *testing.B) {
	benchVerify(b, 1000)
}

func BenchmarkVerify_10000(b *testing.B) {
	benchVerify(b, 10000)
}
