package storage

import "testing"

func TestParseS3Ref(t *testing.T) {
	bucket, key, err := parseS3Ref("s3://grades/reports/abc/def.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bucket != "grades" {
		t.Fatalf("bucket = %q", bucket)
	}
	if key != "reports/abc/def.json" {
		t.Fatalf("key = %q", key)
	}
}

func TestParseS3RefRejectsBadRefs(t *testing.T) {
	for _, ref := range []string{"", "grades/key", "s3://", "s3://grades", "s3://grades/"} {
		if _, _, err := parseS3Ref(ref); err == nil {
			t.Fatalf("expected error for %q", ref)
		}
	}
}
