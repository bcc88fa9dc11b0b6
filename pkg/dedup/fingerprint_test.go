package dedup

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		input string
		want  Algorithm
		ok    bool
	}{
		{"", XXHash, true},
		{"xxhash", XXHash, true},
		{"SHA256", SHA256, true},
		{" sha512 ", SHA512, true},
		{"blake3", BLAKE3, true},
		{"md5", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseAlgorithm(tt.input)
		if tt.ok != (err == nil) {
			t.Errorf("ParseAlgorithm(%q) err = %v, want ok=%v", tt.input, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseAlgorithm(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFingerprintLength(t *testing.T) {
	tests := []struct {
		alg  Algorithm
		size int
	}{
		{XXHash, 8},
		{SHA256, 32},
		{SHA512, 64},
		{BLAKE3, 32},
	}
	for _, tt := range tests {
		for _, s := range []string{"", "a", "some longer line of text"} {
			if got := len(tt.alg.Sum(s)); got != tt.size {
				t.Errorf("len(%v.Sum(%q)) = %d, want %d", tt.alg, s, got, tt.size)
			}
		}
	}
}

func TestFingerprintKnownDigests(t *testing.T) {
	tests := []struct {
		alg  Algorithm
		want string
	}{
		{XXHash, "ef46db3751d8e999"},
		{SHA256, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{BLAKE3, "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"},
	}
	for _, tt := range tests {
		if got := tt.alg.Sum("").Hex(); got != tt.want {
			t.Errorf("%v.Sum(\"\") = %s, want %s", tt.alg, got, tt.want)
		}
	}
}

func TestFingerprintDistinguishes(t *testing.T) {
	for _, alg := range []Algorithm{XXHash, SHA256, SHA512, BLAKE3} {
		if alg.Sum("a") == alg.Sum("b") {
			t.Errorf("%v: Sum(a) == Sum(b)", alg)
		}
		if alg.Sum("a") != alg.Sum("a") {
			t.Errorf("%v: Sum not deterministic", alg)
		}
	}
}

func TestAlgorithmEncoding(t *testing.T) {
	var fromYAML struct {
		Hash Algorithm `yaml:"hash"`
	}
	if err := yaml.Unmarshal([]byte("hash: blake3\n"), &fromYAML); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	if fromYAML.Hash != BLAKE3 {
		t.Errorf("yaml hash = %v, want blake3", fromYAML.Hash)
	}
	if err := yaml.Unmarshal([]byte("hash: crc32\n"), &fromYAML); err == nil {
		t.Error("yaml.Unmarshal accepted an unknown algorithm")
	}

	data, err := json.Marshal(map[string]Algorithm{"hash": SHA512})
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	if string(data) != `{"hash":"sha512"}` {
		t.Errorf("json = %s", data)
	}
}

func BenchmarkRun(b *testing.B) {
	lines := make([]string, 50_000)
	for i := range lines {
		lines[i] = "  Line Number " + string(rune('A'+i%26)) + "  with   padding "
	}
	opts := DefaultOptions()
	opts.IgnoreCase = true
	opts.TrimLine = true
	opts.CollapseWhitespace = true

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := Lines(b.Context(), lines, opts, nil); err != nil {
			b.Fatal(err)
		}
	}
}
