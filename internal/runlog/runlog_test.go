package runlog

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_HeaderOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	when := time.Date(2020, 3, 1, 12, 30, 5, 0, time.Local)

	path, err := Append(dir, Record{Img: "42049", K: 5, T: 2, LogLik: -1234.5, Time: when, Runtime: 90 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), path)

	_, err = Append(dir, Record{Img: "42049", K: 6, T: 2, LogLik: -1200.25, Time: when, Runtime: 1500 * time.Millisecond})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "img,K,T,log_lik,datetime,runtime", lines[0])
	assert.Equal(t, "42049,5,2,-1234.5,2020-03-01_12-30-05,90", lines[1])
	assert.Equal(t, 1, strings.Count(string(data), "log_lik"))
}

func TestRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	when := time.Date(2021, 7, 9, 8, 0, 0, 0, time.Local)
	recs := []Record{
		{Img: "a", K: 3, T: 1, LogLik: -10, Time: when, Runtime: 2 * time.Second},
		{Img: "b", K: 4, T: 2, LogLik: -20.5, Time: when.Add(time.Hour), Runtime: 250 * time.Millisecond},
	}
	for _, r := range recs {
		_, err := Append(dir, r)
		require.NoError(t, err)
	}

	got, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range recs {
		assert.Equal(t, recs[i].Img, got[i].Img)
		assert.Equal(t, recs[i].K, got[i].K)
		assert.Equal(t, recs[i].T, got[i].T)
		assert.Equal(t, recs[i].LogLik, got[i].LogLik)
		assert.True(t, recs[i].Time.Equal(got[i].Time))
		assert.Equal(t, recs[i].Runtime, got[i].Runtime)
	}
}

func TestRead_Missing(t *testing.T) {
	got, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRead_Malformed(t *testing.T) {
	dir := t.TempDir()
	content := "img,K,T,log_lik,datetime,runtime\nx,notint,1,0,2020-01-01_00-00-00,1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	_, err := Read(dir)
	assert.Error(t, err)
}

func TestAppend_ExpectedLogLik(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	dir := t.TempDir()
	elbo := -1300.75
	when := time.Date(2020, 3, 1, 12, 30, 5, 0, time.Local)
	path, err := Append(dir, Record{Img: "7", K: 2, T: 1, LogLik: -1234.5, ExpectedLogLik: &elbo, Time: when, Runtime: time.Second})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "The data log likelihood is: -1234.5")
	assert.Contains(t, buf.String(), "The data expected log likelihood is: -1300.75")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "7,2,1,-1234.5,2020-03-01_12-30-05,1", lines[1])

	got, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].ExpectedLogLik)
}
