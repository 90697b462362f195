// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"fmt"

	"github.com/vechain/poe/poe"
)

// Msg is a message a contract emits, dispatched by the host after the contract returns.
type Msg interface {
	fmt.Stringer
}

// BankSend transfers funds from the emitting contract.
type BankSend struct {
	To     poe.Address
	Amount poe.Coins
}

// BankBurn destroys funds held by the emitting contract.
type BankBurn struct {
	Amount poe.Coins
}

// MintTokens creates new tokens, only privileged contracts may emit it.
type MintTokens struct {
	To     poe.Address
	Amount poe.Coin
}

// Execute calls another contract with the given message and funds.
type Execute struct {
	Contract poe.Address
	Msg      any
	Funds    poe.Coins
}

func (m BankSend) String() string   { return fmt.Sprintf("send %v to %s", m.Amount, m.To) }
func (m BankBurn) String() string   { return fmt.Sprintf("burn %v", m.Amount) }
func (m MintTokens) String() string { return fmt.Sprintf("mint %v to %s", m.Amount, m.To) }
func (m Execute) String() string    { return fmt.Sprintf("execute %T on %s", m.Msg, m.Contract) }

// SubMsg wraps a message with its failure policy. When IgnoreError is set a failing
// message is rolled back alone and the emitting invocation still succeeds.
type SubMsg struct {
	Msg         Msg
	IgnoreError bool
}

// Attribute is a key/value pair describing what an invocation did.
type Attribute struct {
	Key   string
	Value string
}

// Response is the result of an execute, sudo or instantiate call.
type Response struct {
	Messages   []SubMsg
	Attributes []Attribute
	Data       any
}

func NewResponse() *Response {
	return &Response{}
}

// AddMessage appends a message whose failure aborts the invocation.
func (r *Response) AddMessage(msg Msg) *Response {
	r.Messages = append(r.Messages, SubMsg{Msg: msg})
	return r
}

// AddMessages appends every message.
func (r *Response) AddMessages(msgs ...Msg) *Response {
	for _, m := range msgs {
		r.AddMessage(m)
	}
	return r
}

// AddSubMsg appends a message with an explicit failure policy.
func (r *Response) AddSubMsg(msg SubMsg) *Response {
	r.Messages = append(r.Messages, msg)
	return r
}

func (r *Response) AddAttribute(key string, value any) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: fmt.Sprint(value)})
	return r
}

// IsEmpty reports whether the response carries no effect.
func (r *Response) IsEmpty() bool {
	return r == nil || (len(r.Messages) == 0 && len(r.Attributes) == 0 && r.Data == nil)
}

// Attribute returns the value of the first attribute with key.
func (r *Response) Attribute(key string) (string, bool) {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// EndBlock is the privileged message the chain sends at the end of every block to contracts
// registered for it.
type EndBlock struct{}
