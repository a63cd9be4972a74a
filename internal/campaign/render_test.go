package campaign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRendererIndividual(t *testing.T) {
	body, err := Renderer{}.Individual("Spring", "See you\nsoon", "Ana")
	require.NoError(t, err)
	assert.Equal(t, "<html><body><h2>Spring</h2><p>Hello Ana,</p><p>See you<br>soon</p></body></html>", body)
}

func TestRendererCustomGreeting(t *testing.T) {
	body, err := Renderer{Greeting: "Bonjour"}.Individual("T", "M", "Ana")
	require.NoError(t, err)
	assert.Contains(t, body, "<p>Bonjour Ana,</p>")
}

func TestRendererBlankName(t *testing.T) {
	body, err := Renderer{}.Individual("T", "M", "  ")
	require.NoError(t, err)
	assert.Contains(t, body, "<p>Hello there,</p>")
}

func TestRendererBulk(t *testing.T) {
	body, err := Renderer{}.Bulk("Spring", "a\r\nb")
	require.NoError(t, err)
	assert.Equal(t, "<html><body><h2>Spring</h2><p>a<br>b</p></body></html>", body)
}

func TestRendererEscapes(t *testing.T) {
	body, err := Renderer{}.Bulk(`Tom & "Jerry"`, "<img src=x onerror=alert(1)>")
	require.NoError(t, err)
	assert.Contains(t, body, "<h2>Tom &amp; &#34;Jerry&#34;</h2>")
	assert.NotContains(t, body, "<img")
}

func TestRendererTest(t *testing.T) {
	body, err := Renderer{}.Test("Launch", "x")
	require.NoError(t, err)
	assert.Contains(t, body, `<p style="color: #dc2626; font-weight: bold; margin-bottom: 10px;">🧪 TEST EMAIL</p>`)
	assert.Contains(t, body, "<h2>Launch</h2><p>x</p>")
}
