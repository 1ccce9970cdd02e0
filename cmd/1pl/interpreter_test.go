package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/ichiban/resolve/config"
	"github.com/ichiban/resolve/engine"
)

func TestNew(t *testing.T) {
	t.Run("call_nth", func(t *testing.T) {
		p := New(nil)

		sols, err := p.Query(`call_nth(repeat, Nth).`)
		require.NoError(t, err)
		for n := 1; n <= 5; n++ {
			assert.True(t, sols.Next())
			assert.Equal(t, engine.NewInteger(int64(n)), sols.Current()["Nth"])
		}
		assert.NoError(t, sols.Close())

		sols, err = p.Query(`call_nth(( N = 1 ; N = 2 ), Nth).`)
		require.NoError(t, err)
		assert.True(t, sols.Next())
		assert.Equal(t, map[string]engine.Term{"N": engine.NewInteger(1), "Nth": engine.NewInteger(1)}, sols.Current())
		assert.True(t, sols.Next())
		assert.Equal(t, map[string]engine.Term{"N": engine.NewInteger(2), "Nth": engine.NewInteger(2)}, sols.Current())
		assert.False(t, sols.Next())
		assert.NoError(t, sols.Err())
		assert.NoError(t, sols.Close())

		tests := []struct {
			query string
			ok    bool
			err   bool
		}{
			{query: `call_nth(true, 1).`, ok: true},
			{query: `call_nth(true, 0).`},
			{query: `call_nth(repeat, 3).`, ok: true},
			{query: `call_nth(member_of_nothing, 1).`, err: true},
			{query: `call_nth(true, -1).`, err: true},
			{query: `call_nth(true, a).`, err: true},
			{query: `call_nth(length(L, N), 3), L = [_, _], N =:= 2.`, ok: true},
		}
		for _, tt := range tests {
			t.Run(tt.query, func(t *testing.T) {
				sols, err := p.Query(tt.query)
				require.NoError(t, err)
				defer sols.Close()
				assert.Equal(t, tt.ok, sols.Next())
				assert.Equal(t, tt.err, sols.Err() != nil)
			})
		}
	})

	t.Run("version", func(t *testing.T) {
		var out bytes.Buffer
		p := New(&out)
		sols, err := p.Query(`version(V), write(V).`)
		require.NoError(t, err)
		assert.True(t, sols.Next())
		assert.NoError(t, sols.Close())
		assert.Equal(t, Version, out.String())
	})
}

func TestOptions_Config(t *testing.T) {
	o := options{trace: true, verbose: true}
	cfg, err := o.config([]string{"a.pl"})
	require.NoError(t, err)
	assert.True(t, cfg.Trace)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"a.pl"}, cfg.Consult)

	o = options{configPath: "does-not-exist.yaml"}
	_, err = o.config(nil)
	assert.Error(t, err)
}

func TestRun_notTerminal(t *testing.T) {
	if terminal.IsTerminal(0) {
		t.Skip("stdin is a terminal")
	}

	err := run(context.Background(), config.DefaultConfig(), "")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to enter raw mode: "), err.Error())
	assert.NotEqual(t, err, errors.Cause(err))
}
