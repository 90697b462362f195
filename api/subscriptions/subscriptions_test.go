// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/poe/test/testchain"
)

func newServer(t *testing.T, origins ...string) (*testchain.Chain, *httptest.Server) {
	chain, err := testchain.NewDefault()
	require.NoError(t, err)
	router := mux.NewRouter()
	New(chain.Solo(), origins).Mount(router, "/subscriptions")
	ts := httptest.NewServer(router)
	t.Cleanup(func() {
		ts.Close()
		chain.Close()
	})
	return chain, ts
}

func wsURL(ts *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/subscriptions/blocks" + query
}

// produce mints a block every few milliseconds until the returned stop function is called.
func produce(t *testing.T, chain *testchain.Chain) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			case <-time.After(10 * time.Millisecond):
				if _, err := chain.MintBlock(); err != nil {
					t.Error(err)
					return
				}
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

func TestSubscribeBlocks(t *testing.T) {
	chain, ts := newServer(t, "*")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, ""), nil)
	require.NoError(t, err)
	defer conn.Close()
	stop := produce(t, chain)
	defer stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var first, second JSONBlock
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, first.Height+1, second.Height)
	assert.Equal(t, first.Time+testchain.BlockInterval, second.Time)
}

func TestSubscribeEpochs(t *testing.T) {
	chain, ts := newServer(t, "*")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "?epochs=true"), nil)
	require.NoError(t, err)
	defer conn.Close()
	stop := produce(t, chain)
	defer stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var b JSONBlock
	require.NoError(t, conn.ReadJSON(&b))
	assert.True(t, b.EpochEnded)
	// the first block ends the genesis epoch, then every 60 seconds
	assert.True(t, b.Time == 1010 || b.Time%60 == 0, b.Time)
}

func TestSubscribeRejected(t *testing.T) {
	_, ts := newServer(t, "https://poe.example")

	res, err := http.Get(ts.URL + "/subscriptions/blocks?epochs=maybe") //#nosec G107
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	_, res, err = websocket.DefaultDialer.Dial(wsURL(ts, ""), http.Header{"Origin": {"https://other.example"}})
	assert.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}
