package version

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liangyou/golatest/pkg/models"
)

type stubRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (s *stubRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	key := name
	for _, a := range args {
		key += " " + a
	}
	s.calls = append(s.calls, key)
	if err := s.errs[key]; err != nil {
		return []byte(s.outputs[key]), err
	}
	return []byte(s.outputs[key]), nil
}

func lookPathAt(path string) func(string) (string, error) {
	return func(string) (string, error) { return path, nil }
}

func TestProbeInstalled(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{outputs: map[string]string{
		"/usr/local/go/bin/go version": "go version go1.21.11 linux/amd64\n",
	}}
	probe := NewProbe(runner)
	probe.lookPath = lookPathAt("/usr/local/go/bin/go")

	ver, path, err := probe.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "go1.21.11", ver)
	assert.Equal(t, "/usr/local/go/bin/go", path)
}

func TestProbeNotInstalled(t *testing.T) {
	t.Parallel()

	probe := NewProbe(&stubRunner{})
	probe.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	_, _, err := probe.Probe(context.Background())
	assert.ErrorIs(t, err, models.ErrNotInstalled)
}

func TestProbeUnparseableOutput(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{outputs: map[string]string{"/opt/go/bin/go version": "something unexpected"}}
	probe := NewProbe(runner)
	probe.lookPath = lookPathAt("/opt/go/bin/go")

	_, path, err := probe.Probe(context.Background())
	assert.ErrorIs(t, err, models.ErrParse)
	assert.Equal(t, "/opt/go/bin/go", path)
}

func TestProbeCommandFailure(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{errs: map[string]error{"/bin/go version": errors.New("exec format error")}}
	probe := NewProbe(runner)
	probe.lookPath = lookPathAt("/bin/go")

	_, _, err := probe.Probe(context.Background())
	assert.ErrorIs(t, err, models.ErrParse)
}
