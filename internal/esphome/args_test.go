package esphome

import (
	"errors"
	"reflect"
	"testing"

	"github.com/postsi/ESPHomeCLI-AddOn/internal/domain"
)

func TestBuildArgs_Validate(t *testing.T) {
	args, err := BuildArgs(domain.OpValidate, "/data/workspace/config_x.yaml", domain.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"config", "/data/workspace/config_x.yaml"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args: got %v, want %v", args, want)
	}
}

func TestBuildArgs_RejectsUnknownOperation(t *testing.T) {
	_, err := BuildArgs(domain.OperationKind("flash"), "/tmp/c.yaml", domain.Options{})
	if !errors.Is(err, domain.ErrOperationNotAllowed) {
		t.Errorf("expected ErrOperationNotAllowed, got %v", err)
	}

	_, err = BuildArgs(domain.OperationKind(""), "/tmp/c.yaml", domain.Options{})
	if !errors.Is(err, domain.ErrOperationNotAllowed) {
		t.Errorf("expected ErrOperationNotAllowed for empty operation, got %v", err)
	}
}

func TestBuildArgs_OperationSpecificFlags(t *testing.T) {
	opts := domain.Options{
		Device:       "192.168.1.10",
		UploadSpeed:  460800,
		OnlyGenerate: true,
		NoLogs:       true,
	}

	tests := []struct {
		op   domain.OperationKind
		want []string
	}{
		{
			op:   domain.OpCompile,
			want: []string{"compile", "/w/c.yaml", "--only-generate"},
		},
		{
			op:   domain.OpUpload,
			want: []string{"upload", "/w/c.yaml", "--device", "192.168.1.10", "--upload-speed", "460800"},
		},
		{
			op:   domain.OpRun,
			want: []string{"run", "/w/c.yaml", "--device", "192.168.1.10", "--upload-speed", "460800", "--no-logs"},
		},
		{
			// clean ignores every option
			op:   domain.OpClean,
			want: []string{"clean", "/w/c.yaml"},
		},
		{
			// validate ignores device/speed/flags too
			op:   domain.OpValidate,
			want: []string{"config", "/w/c.yaml"},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			args, err := BuildArgs(tt.op, "/w/c.yaml", opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(args, tt.want) {
				t.Errorf("args: got %v, want %v", args, tt.want)
			}
		})
	}
}

func TestBuildArgs_SubstitutionsSortedByKey(t *testing.T) {
	opts := domain.Options{
		Substitutions: map[string]string{
			"zone":     "kitchen",
			"board":    "esp32dev",
			"dev_name": "sensor1",
		},
	}

	args, err := BuildArgs(domain.OpCompile, "/w/c.yaml", opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"compile", "/w/c.yaml",
		"--substitution", "board", "esp32dev",
		"--substitution", "dev_name", "sensor1",
		"--substitution", "zone", "kitchen",
	}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args: got %v, want %v", args, want)
	}
}

// Two identical requests must produce byte-identical argument vectors, even
// though Go map iteration order is random.
func TestBuildArgs_Deterministic(t *testing.T) {
	opts := domain.Options{
		Device:      "/dev/ttyUSB0",
		UploadSpeed: 115200,
		Substitutions: map[string]string{
			"a": "1", "b": "2", "c": "3", "d": "4", "e": "5",
			"f": "6", "g": "7", "h": "8", "i": "9", "j": "10",
		},
	}

	first, err := BuildArgs(domain.OpRun, "/w/c.yaml", opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 50; i++ {
		again, err := BuildArgs(domain.OpRun, "/w/c.yaml", opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("non-deterministic args: %v vs %v", first, again)
		}
	}
}
