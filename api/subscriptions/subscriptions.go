// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/poe/api/utils"
	"github.com/vechain/poe/log"
	"github.com/vechain/poe/solo"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	writeTimeout = 10 * time.Second
	pingPeriod   = 30 * time.Second
	feedBuffer   = 16
)

// BlockFeed publishes produced blocks.
type BlockFeed interface {
	SubscribeBlocks(ch chan *solo.Summary) event.Subscription
}

type Subscriptions struct {
	feed     BlockFeed
	upgrader *websocket.Upgrader
}

func New(feed BlockFeed, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		feed: feed,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

// handleSubscribeBlocks streams a message per block, or per epoch end when epochs=true.
func (s *Subscriptions) handleSubscribeBlocks(w http.ResponseWriter, req *http.Request) error {
	var epochsOnly bool
	if v := req.URL.Query().Get("epochs"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "epochs"))
		}
		epochsOnly = b
	}

	conn, err := s.upgrader.Upgrade(w, req, nil)
	// the upgrader already wrote the error response
	if err != nil {
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	defer conn.Close()

	ch := make(chan *solo.Summary, feedBuffer)
	sub := s.feed.SubscribeBlocks(ch)
	defer sub.Unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		// drain control frames until the client leaves
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return nil
		case <-sub.Err():
			return nil
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return nil
			}
		case summary := <-ch:
			if epochsOnly && !summary.EpochEnded {
				continue
			}
			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return nil
			}
			if err := conn.WriteJSON(convertSummary(summary)); err != nil {
				logger.Debug("write failed", "err", err)
				return nil
			}
		}
	}
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("/blocks").
		Methods(http.MethodGet).
		Name("subscriptions_blocks").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeBlocks))
}
