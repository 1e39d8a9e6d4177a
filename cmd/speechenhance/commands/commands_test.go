package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/audio/pcm"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/audio/wav"
	"github.com/Nancy1234567892019/dnn-based-speech-enhancement/pkg/trainer"
)

// setupTestEnv points HOME at an empty directory so no user config is read.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	cfgFile = ""
	verbose = false
	formatOutput = "table"
	outputFile = ""

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	wOut.Close()
	wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	var outBuf, errBuf bytes.Buffer
	outBuf.ReadFrom(rOut)
	errBuf.ReadFrom(rErr)

	stdout = outBuf.String()
	stderr = errBuf.String()
	if err != nil {
		exitCode = 1
		if stderr == "" {
			stderr = err.Error()
		} else {
			stderr += err.Error()
		}
	}

	resetFlags(rootCmd)
	return
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
		f.Value.Set(f.DefValue)
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// writeTestYAML writes a YAML file to a temp dir and returns its path.
func writeTestYAML(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeDataset creates n pairs of 0.1 s, 48 kHz WAV files under
// root/X_data and root/y_data and returns a config file using them.
func writeDataset(t *testing.T, root string, n int) string {
	t.Helper()
	for _, sub := range []string{"X_data", "y_data"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for i := range n {
		clean := make([]int32, 4800)
		noisy := make([]int32, 4800)
		for j := range clean {
			clean[j] = int32((j*37+i*11)%400-200) * 5_000_000
			noisy[j] = clean[j] + int32((j*7919)%50-25)*1_000_000
		}
		f := pcm.Format{SampleRate: 48000, Channels: 1, Depth: 32}
		name := fmt.Sprintf("%02d.wav", i)
		if err := wav.WriteFile(filepath.Join(root, "X_data", name), &pcm.Buffer{Format: f, Samples: noisy}); err != nil {
			t.Fatal(err)
		}
		if err := wav.WriteFile(filepath.Join(root, "y_data", name), &pcm.Buffer{Format: f, Samples: clean}); err != nil {
			t.Fatal(err)
		}
	}

	return writeTestYAML(t, "train.yaml", fmt.Sprintf(`input_dir: %[1]s/X_data
label_dir: %[1]s/y_data
epochs: 1
test_files: 1
taps: 8
coverage: full
log_level: error
checkpoint:
  dir: %[1]s/ckpt
summary_dir: %[1]s/summaries
generated_dir: %[1]s/generated
`, root))
}

func TestVersion(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCmd(t, "version")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "speechenhance") {
		t.Fatalf("expected 'speechenhance', got: %s", stdout)
	}
}

func TestVersionJSON(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCmd(t, "version", "--format", "json")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, `"version"`) {
		t.Fatalf("expected JSON, got: %s", stdout)
	}
}

func TestCatalog(t *testing.T) {
	setupTestEnv(t)
	cfg := writeDataset(t, t.TempDir(), 3)

	stdout, stderr, code := runCmd(t, "catalog", "-c", cfg, "--format", "json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	var res catalogResult
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}
	if res.Test != 1 || res.Train != 2 || len(res.Pairs) != 3 {
		t.Fatalf("catalog = %+v", res)
	}
	if res.Pairs[0].Set != "test" || !strings.HasSuffix(res.Pairs[0].Input, "00.wav") || res.Pairs[0].Bytes == 0 {
		t.Fatalf("first pair = %+v", res.Pairs[0])
	}

	stdout, _, code = runCmd(t, "catalog", "-c", cfg)
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "SET") || !strings.Contains(stdout, "train") {
		t.Fatalf("expected table, got: %s", stdout)
	}
}

func TestCatalogMismatch(t *testing.T) {
	setupTestEnv(t)
	root := t.TempDir()
	cfg := writeDataset(t, root, 2)
	if err := os.WriteFile(filepath.Join(root, "X_data", "extra.wav"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, stderr, code := runCmd(t, "catalog", "-c", cfg)
	if code == 0 {
		t.Fatal("expected error for mismatched trees")
	}
	if !strings.Contains(stderr, "mismatch") {
		t.Fatalf("expected mismatch error, got: %s", stderr)
	}
}

func TestCatalogMissingDefaults(t *testing.T) {
	setupTestEnv(t)
	t.Chdir(t.TempDir())

	_, _, code := runCmd(t, "catalog")
	if code == 0 {
		t.Fatal("expected error without ./X_data")
	}
}

func TestUnsupportedFormat(t *testing.T) {
	setupTestEnv(t)
	cfg := writeDataset(t, t.TempDir(), 2)

	_, stderr, code := runCmd(t, "catalog", "-c", cfg, "--format", "xml")
	if code == 0 {
		t.Fatal("expected error for unknown format")
	}
	if !strings.Contains(stderr, "unsupported output format") {
		t.Fatalf("got: %s", stderr)
	}
}

func TestUnknownConfigKey(t *testing.T) {
	setupTestEnv(t)
	cfg := writeTestYAML(t, "bad.yaml", "epoch: 3\n")

	_, _, code := runCmd(t, "catalog", "-c", cfg)
	if code == 0 {
		t.Fatal("expected error for unknown config key")
	}
}

func TestUserConfigFile(t *testing.T) {
	home := setupTestEnv(t)
	cfg := writeDataset(t, t.TempDir(), 3)
	data, err := os.ReadFile(cfg)
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(home, ".speechenhance")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, code := runCmd(t, "catalog", "--format", "json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, `"train": 2`) {
		t.Fatalf("user config not used: %s", stdout)
	}
}

func TestFrames(t *testing.T) {
	setupTestEnv(t)
	cfg := writeDataset(t, t.TempDir(), 3)

	stdout, stderr, code := runCmd(t, "frames", "-c", cfg, "--coverage", "full", "--format", "json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	var res framesResult
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}
	// Two training files of 5 frames yield 3 each; the walk ends on the
	// first frame of epoch 1.
	if res.Frames != 7 || len(res.Visits) != 3 {
		t.Fatalf("frames = %+v", res)
	}
	if res.Visits[0].FrameLen != 960 || res.Visits[2].Epoch != 1 {
		t.Fatalf("visits = %+v", res.Visits)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
}

func TestTrainSummaryEnhance(t *testing.T) {
	setupTestEnv(t)
	root := t.TempDir()
	cfg := writeDataset(t, root, 3)

	stdout, stderr, code := runCmd(t, "train", "-c", cfg, "--run", "t1", "--format", "json")
	if code != 0 {
		t.Fatalf("train exit %d: %s", code, stderr)
	}
	var res struct {
		Run       string   `json:"run"`
		Steps     int64    `json:"steps"`
		TestLoss  *float64 `json:"test_loss"`
		Generated []string `json:"generated"`
	}
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}
	// Epochs 0 and 1 over two files of 3 frames, then one frame of epoch 2.
	if res.Run != "t1" || res.Steps != 13 || res.TestLoss == nil {
		t.Fatalf("train result = %+v", res)
	}
	if len(res.Generated) != 1 {
		t.Fatalf("generated = %v", res.Generated)
	}
	if _, err := os.Stat(filepath.Join(root, "ckpt", "model.ckpt")); err != nil {
		t.Fatalf("checkpoint missing: %v", err)
	}
	saved, err := trainer.LoadConfig(filepath.Join(root, "ckpt", "t1.yaml"))
	if err != nil {
		t.Fatalf("run config: %v", err)
	}
	if saved.Epochs != 1 || saved.Taps != 8 || saved.Coverage != "full" {
		t.Fatalf("run config = %+v", saved)
	}

	stdout, _, code = runCmd(t, "summary", "-c", cfg)
	if code != 0 || !strings.Contains(stdout, "t1") {
		t.Fatalf("summary runs exit %d: %s", code, stdout)
	}
	stdout, _, code = runCmd(t, "summary", "t1", "-c", cfg, "--tag", "test_loss", "--format", "json")
	if code != 0 || !strings.Contains(stdout, `"tag": "test_loss"`) {
		t.Fatalf("summary scalars exit %d: %s", code, stdout)
	}

	out := filepath.Join(root, "enhanced.wav")
	stdout, stderr, code = runCmd(t, "enhance", "-c", cfg, filepath.Join(root, "X_data", "01.wav"), out, "--format", "json")
	if code != 0 {
		t.Fatalf("enhance exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, `"frames": 5`) || !strings.Contains(stdout, `"step": 13`) {
		t.Fatalf("enhance result: %s", stdout)
	}
	buf, err := wav.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 4800 || buf.Format.SampleRate != 48000 {
		t.Fatalf("enhanced = %d samples at %d Hz", buf.Len(), buf.Format.SampleRate)
	}
}

func TestTrainResumeFlag(t *testing.T) {
	setupTestEnv(t)
	cfg := writeDataset(t, t.TempDir(), 3)

	if _, stderr, code := runCmd(t, "train", "-c", cfg, "--epochs", "0"); code != 0 {
		t.Fatalf("first run exit %d: %s", code, stderr)
	}
	stdout, stderr, code := runCmd(t, "train", "-c", cfg, "--epochs", "0", "--resume", "--format", "json")
	if code != 0 {
		t.Fatalf("resume exit %d: %s", code, stderr)
	}
	// Each run trains two files of 3 frames plus one frame.
	if !strings.Contains(stdout, `"resumed": true`) || !strings.Contains(stdout, `"steps": 14`) {
		t.Fatalf("resume result: %s", stdout)
	}
}

func TestTrainInvalidOverride(t *testing.T) {
	setupTestEnv(t)
	cfg := writeDataset(t, t.TempDir(), 3)

	_, stderr, code := runCmd(t, "train", "-c", cfg, "--coverage", "most")
	if code == 0 {
		t.Fatal("expected error for unknown coverage")
	}
	if !strings.Contains(stderr, "coverage") {
		t.Fatalf("got: %s", stderr)
	}
}

func TestEnhanceWithoutCheckpoint(t *testing.T) {
	setupTestEnv(t)
	root := t.TempDir()
	cfg := writeDataset(t, root, 2)

	_, stderr, code := runCmd(t, "enhance", "-c", cfg, filepath.Join(root, "X_data", "00.wav"), filepath.Join(root, "out.wav"))
	if code == 0 {
		t.Fatal("expected error without a checkpoint")
	}
	if !strings.Contains(stderr, "no checkpoint") {
		t.Fatalf("got: %s", stderr)
	}
}

func TestEnhanceArgs(t *testing.T) {
	setupTestEnv(t)

	_, _, code := runCmd(t, "enhance", "only-one.wav")
	if code == 0 {
		t.Fatal("expected error for missing output argument")
	}
}
