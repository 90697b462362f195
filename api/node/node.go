// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/poe/api/utils"
	"github.com/vechain/poe/genesis"
	"github.com/vechain/poe/poe"
)

// Chain reports the block being built.
type Chain interface {
	Block() poe.Block
}

type Node struct {
	chain   Chain
	network *genesis.Network
}

func New(chain Chain, network *genesis.Network) *Node {
	return &Node{
		chain,
		network,
	}
}

// Block is the json form of poe.Block.
type Block struct {
	Height uint64 `json:"height"`
	Time   uint64 `json:"time"`
}

func (n *Node) handleBlock(w http.ResponseWriter, _ *http.Request) error {
	b := n.chain.Block()
	return utils.WriteJSON(w, &Block{Height: b.Height, Time: b.Time})
}

func (n *Node) handleNetwork(w http.ResponseWriter, _ *http.Request) error {
	return utils.WriteJSON(w, n.network)
}

func (n *Node) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/block").
		Methods(http.MethodGet).
		Name("node_get_block").
		HandlerFunc(utils.WrapHandlerFunc(n.handleBlock))
	sub.Path("/network").
		Methods(http.MethodGet).
		Name("node_get_network").
		HandlerFunc(utils.WrapHandlerFunc(n.handleNetwork))
}
