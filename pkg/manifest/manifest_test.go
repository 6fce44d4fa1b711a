package manifest

import (
	"testing"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
[app]
name = "contentops"

[workflow]
generate_url = "https://n8n.example/webhook/generate"
status_url   = "https://n8n.example/webhook/status/{id}"

[blob]
driver = "S3"
bucket = "media"

[[page]]
name = "dashboard"
path = "/"
nav  = true
guard = { require_auth = true }

[[page]]
name = "articles"
path = "articles/"

[[route]]
path   = "/api/tasks/{id}"
handler = { type = "inproc", name = "tasks.get" }
policy  = { timeout_ms = 2000 }

[[route]]
path   = "/api/feedback"
method = "post"
handler = { type = "relay.publish", relay = { topic = "feedback.submitted" } }
`

func load(t *testing.T, src string) (Config, error) {
	t.Helper()
	var c Config
	require.NoError(t, toml.Unmarshal([]byte(src), &c))
	return c, c.Validate()
}

func TestValidateNormalizes(t *testing.T) {
	c, err := load(t, sample)
	require.NoError(t, err)

	assert.Equal(t, "/articles", c.Pages[1].Path)
	assert.Equal(t, "GET", c.Routes[0].Method)
	assert.Equal(t, "POST", c.Routes[1].Method)
	assert.Equal(t, BlobS3, c.Blob.Driver)
	assert.Equal(t, 10, c.Blob.MaxUploadMB)
	assert.Equal(t, "data/contentops.db", c.Store.Path)
	assert.Equal(t, "N8N_WEBHOOK_SECRET", c.Workflow.SecretEnv)
	assert.Equal(t, 15000, c.Workflow.PollIntervalMS)
	assert.Equal(t, 30000, c.App.WriteTimeoutMS)
	assert.True(t, c.Pages[0].Guard.RequireAuth)
	assert.False(t, c.Pages[0].Guard.Open())

	p, ok := c.Page("articles")
	require.True(t, ok)
	assert.Equal(t, "/articles", p.Path)
}

func TestPolicyTimeoutsFitWriteTimeout(t *testing.T) {
	slowPage := "[[page]]\nname = \"articles\"\npath = \"/articles\"\npolicy = { timeout_ms = 45000 }\n"

	_, err := load(t, slowPage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page articles")
	assert.Contains(t, err.Error(), "write_timeout_ms 30000")

	c, err := load(t, "[app]\nwrite_timeout_ms = 60000\n"+slowPage)
	require.NoError(t, err)
	assert.Equal(t, 60000, c.App.WriteTimeoutMS)

	slowRoute := "[app]\nwrite_timeout_ms = 5000\n[[page]]\nname = \"home\"\npath = \"/\"\n" +
		"[[route]]\npath = \"/api/x\"\nhandler = { type = \"inproc\", name = \"x\" }\npolicy = { timeout_ms = 6000 }\n"
	_, err = load(t, slowRoute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "route /api/x")
}

func TestValidateRejects(t *testing.T) {
	page := "[[page]]\nname = \"home\"\npath = \"/\"\n"
	cases := map[string]string{
		"no pages":        `[app]`,
		"dup page name":   page + page,
		"page with param": "[[page]]\nname = \"x\"\npath = \"/t/{id}\"\n",
		"bad handler":     page + "[[route]]\npath = \"/api/x\"\nhandler = { type = \"proxy\" }\n",
		"inproc no name":  page + "[[route]]\npath = \"/api/x\"\nhandler = { type = \"inproc\" }\n",
		"relay via get":   page + "[[route]]\npath = \"/api/x\"\nhandler = { type = \"relay.publish\", relay = { topic = \"t\" } }\n",
		"shadows page":    page + "[[route]]\npath = \"/\"\nhandler = { type = \"inproc\", name = \"x\" }\n",
		"reserved":        page + "[[route]]\npath = \"/metrics\"\nhandler = { type = \"inproc\", name = \"x\" }\n",
		"negative policy": page + "[[route]]\npath = \"/api/x\"\nhandler = { type = \"inproc\", name = \"x\" }\npolicy = { timeout_ms = -1 }\n",
		"relative hook":   page + "[workflow]\ngenerate_url = \"/webhook\"\n",
		"s3 no bucket":    page + "[blob]\ndriver = \"s3\"\n",
		"unknown blob":    page + "[blob]\ndriver = \"gcs\"\n",
		"negative write":  page + "[app]\nwrite_timeout_ms = -1\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := load(t, src)
			assert.Error(t, err)
		})
	}
}
