package migration

import "testing"

func TestEmbeddedVersions(t *testing.T) {
	versions, err := embeddedVersions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(versions) < 2 {
		t.Fatalf("expected at least 2 migrations, got %v", versions)
	}
	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Errorf("versions not sorted: %v", versions)
		}
	}
}

func TestPreviousVersion(t *testing.T) {
	versions := []uint64{1, 2, 5}

	tests := []struct {
		dirty   uint64
		want    uint64
		wantErr bool
	}{
		{dirty: 2, want: 1},
		{dirty: 5, want: 2},
		{dirty: 1, wantErr: true},
		{dirty: 3, wantErr: true},
	}

	for _, tc := range tests {
		got, err := previousVersion(versions, tc.dirty)
		if tc.wantErr {
			if err == nil {
				t.Errorf("previousVersion(%d): expected error", tc.dirty)
			}
			continue
		}
		if err != nil {
			t.Errorf("previousVersion(%d): unexpected error %v", tc.dirty, err)
		}
		if got != tc.want {
			t.Errorf("previousVersion(%d) = %d; want %d", tc.dirty, got, tc.want)
		}
	}
}
