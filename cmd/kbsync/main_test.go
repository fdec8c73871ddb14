package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/kbsync/internal/config"
	"github.com/timmy/kbsync/internal/domain"
	"github.com/timmy/kbsync/internal/extract"
	"github.com/urfave/cli/v2"
)

const testDescriptors = `[
  {"agentName": "support", "agentId": "A1", "agentAliasId": "AL1", "knowledgeBaseId": "KB1", "DataSourceId": ["DS1", "DS2"]},
  {"agentName": "router", "agentId": "A2", "agentAliasId": "AL2"}
]`

// newGateway serves the ingestion gateway API; jobs for DS2 fail.
func newGateway(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var triggers atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /groups/{group}/sources/{source}/jobs", func(w http.ResponseWriter, r *http.Request) {
		triggers.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, `{"job_id":"job-%s"}`, r.PathValue("source"))
	})
	mux.HandleFunc("GET /groups/{group}/sources/{source}/jobs/{job}", func(w http.ResponseWriter, r *http.Request) {
		status := "COMPLETE"
		if r.PathValue("source") == "DS2" {
			status = "FAILED"
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":%q}`, status)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &triggers
}

type fixture struct {
	dir         string
	configPath  string
	descriptors string
	report      string
	agentIDs    string
}

func newFixture(t *testing.T, baseURL string) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:         dir,
		configPath:  filepath.Join(dir, "config.yaml"),
		descriptors: filepath.Join(dir, "descriptors.json"),
		report:      filepath.Join(dir, "out", "report.json"),
		agentIDs:    filepath.Join(dir, "out", "agent_ids.json"),
	}
	cfg := fmt.Sprintf(`
aws:
  region: us-east-1
  access_key: test
  secret_key: test
remote:
  provider: http
  base_url: %s
poll:
  interval: 10ms
  retry_backoff: 5ms
  max_consecutive_failures: 2
  max_elapsed: 5s
report:
  file: %s
  agent_ids_file: %s
`, baseURL, f.report, f.agentIDs)
	require.NoError(t, os.WriteFile(f.configPath, []byte(cfg), 0o644))
	require.NoError(t, os.WriteFile(f.descriptors, []byte(testDescriptors), 0o644))
	return f
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"kbsync", "--log-level", "error"}, args...))
	return out.String(), err
}

func TestSpecsCommand(t *testing.T) {
	f := newFixture(t, "http://unused.invalid")

	out, err := runApp(t, "specs", "--config", f.configPath, "--descriptors", f.descriptors)
	require.NoError(t, err)

	var specs []domain.JobSpec
	require.NoError(t, json.Unmarshal([]byte(out), &specs))
	assert.Equal(t, []domain.JobSpec{{GroupID: "KB1", SubSourceIDs: []string{"DS1", "DS2"}}}, specs)
}

func TestRunCommand(t *testing.T) {
	srv, triggers := newGateway(t)
	f := newFixture(t, srv.URL)

	_, err := runApp(t, "run", "--config", f.configPath, "--descriptors", f.descriptors)
	require.NoError(t, err)
	assert.Equal(t, int32(2), triggers.Load())

	data, err := os.ReadFile(f.report)
	require.NoError(t, err)
	var report domain.BatchReport
	require.NoError(t, json.Unmarshal(data, &report))
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, "DS1", report.Outcomes[0].Handle.SubSourceID)
	assert.Equal(t, domain.JobStateSucceeded, report.Outcomes[0].FinalState)
	assert.Equal(t, "job-DS1", report.Outcomes[0].Handle.JobID)
	assert.Equal(t, "DS2", report.Outcomes[1].Handle.SubSourceID)
	assert.Equal(t, domain.JobStateFailed, report.Outcomes[1].FinalState)

	data, err = os.ReadFile(f.agentIDs)
	require.NoError(t, err)
	var refs []extract.AgentRef
	require.NoError(t, json.Unmarshal(data, &refs))
	assert.Equal(t, []extract.AgentRef{{AgentID: "A1", AgentAliasID: "AL1"}, {AgentID: "A2", AgentAliasID: "AL2"}}, refs)
}

func TestRunCommandFailOnError(t *testing.T) {
	srv, _ := newGateway(t)
	f := newFixture(t, srv.URL)

	_, err := runApp(t, "run", "--config", f.configPath, "--descriptors", f.descriptors, "--fail-on-error")
	require.Error(t, err)

	var exitErr cli.ExitCoder
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.FileExists(t, f.report)
}

func TestRunCommandRejectsBothSources(t *testing.T) {
	f := newFixture(t, "http://unused.invalid")

	_, err := runApp(t, "run", "--config", f.configPath, "--descriptors", f.descriptors, "--stack-name", "stack")
	require.Error(t, err)
	var exitErr cli.ExitCoder
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.ExitCode())
}

func TestDescriptorSourceRequiresTarget(t *testing.T) {
	_, err := descriptorSource(&config.DiscoveryConfig{}, awsConfigForTest())
	assert.ErrorIs(t, err, errNoSource)

	src, err := descriptorSource(&config.DiscoveryConfig{DescriptorFile: "d.json", StackName: "s"}, awsConfigForTest())
	require.NoError(t, err)
	assert.IsType(t, &extract.FileSource{}, src)

	src, err = descriptorSource(&config.DiscoveryConfig{StackName: "s"}, awsConfigForTest())
	require.NoError(t, err)
	assert.IsType(t, &extract.StackOutputSource{}, src)
}

func TestPollPolicyFromConfig(t *testing.T) {
	cfg, err := config.Load(newFixture(t, "http://unused.invalid").configPath)
	require.NoError(t, err)

	policy := pollPolicy(&cfg.Poll)
	require.NoError(t, policy.Validate())
	assert.Equal(t, 2, policy.MaxConsecutiveFailures)
}

func awsConfigForTest() aws.Config {
	return aws.Config{Region: "us-east-1"}
}
