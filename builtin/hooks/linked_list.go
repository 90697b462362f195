// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package hooks

import (
	"github.com/pkg/errors"

	"github.com/vechain/poe/builtin/storage"
	"github.com/vechain/poe/poe"
)

// LinkedList is an insertion ordered set of addresses.
type LinkedList struct {
	head  *storage.Item[poe.Address]
	tail  *storage.Item[poe.Address]
	count *storage.Item[uint64]
	next  *storage.Map[poe.Address, poe.Address]
	prev  *storage.Map[poe.Address, poe.Address]
}

func NewLinkedList(sctx *storage.Context, name string) *LinkedList {
	return &LinkedList{
		head:  storage.NewItem[poe.Address](sctx, name+"-head"),
		tail:  storage.NewItem[poe.Address](sctx, name+"-tail"),
		count: storage.NewItem[uint64](sctx, name+"-count"),
		next:  storage.NewMap[poe.Address, poe.Address](sctx, name+"-next"),
		prev:  storage.NewMap[poe.Address, poe.Address](sctx, name+"-prev"),
	}
}

func (l *LinkedList) Len() (uint64, error) {
	n, _, err := l.count.Get()
	return n, err
}

// Contains reports whether address is in the list.
func (l *LinkedList) Contains(address poe.Address) (bool, error) {
	if address.IsZero() {
		return false, nil
	}
	if _, ok, err := l.prev.Get(address); err != nil || ok {
		return ok, err
	}
	head, _, err := l.head.Get()
	return head == address, err
}

// Add appends an address to the end of the list.
func (l *LinkedList) Add(address poe.Address) error {
	if address.IsZero() {
		return errors.New("zero address")
	}
	oldTail, ok, err := l.tail.Get()
	if err != nil {
		return err
	}

	if !ok {
		// the list is currently empty, set this entry to head & tail
		if err := l.head.Save(address); err != nil {
			return err
		}
	} else {
		if err := l.next.Save(oldTail, address); err != nil {
			return err
		}
		if err := l.prev.Save(address, oldTail); err != nil {
			return err
		}
	}
	if err := l.tail.Save(address); err != nil {
		return err
	}
	n, err := l.Len()
	if err != nil {
		return err
	}
	return l.count.Save(n + 1)
}

// Remove unlinks an address from anywhere in the list. Absent addresses are ignored.
func (l *LinkedList) Remove(address poe.Address) error {
	in, err := l.Contains(address)
	if err != nil || !in {
		return err
	}

	prev, hasPrev, err := l.prev.Get(address)
	if err != nil {
		return err
	}
	next, hasNext, err := l.next.Get(address)
	if err != nil {
		return err
	}

	if hasPrev {
		if hasNext {
			err = l.next.Save(prev, next)
		} else {
			err = l.next.Remove(prev)
		}
	} else if hasNext {
		err = l.head.Save(next)
	} else {
		err = l.head.Remove()
	}
	if err != nil {
		return err
	}

	if hasNext {
		if hasPrev {
			err = l.prev.Save(next, prev)
		} else {
			err = l.prev.Remove(next)
		}
	} else if hasPrev {
		err = l.tail.Save(prev)
	} else {
		err = l.tail.Remove()
	}
	if err != nil {
		return err
	}

	if err := l.next.Remove(address); err != nil {
		return err
	}
	if err := l.prev.Remove(address); err != nil {
		return err
	}
	n, err := l.Len()
	if err != nil {
		return err
	}
	return l.count.Save(n - 1)
}

// Iter traverses the list in insertion order until completion or error.
func (l *LinkedList) Iter(callback func(poe.Address) error) error {
	ptr, ok, err := l.head.Get()
	if err != nil {
		return err
	}
	for ok {
		if err := callback(ptr); err != nil {
			return err
		}
		if ptr, ok, err = l.next.Get(ptr); err != nil {
			return err
		}
	}
	return nil
}

// All returns every address in insertion order.
func (l *LinkedList) All() ([]poe.Address, error) {
	var out []poe.Address
	err := l.Iter(func(a poe.Address) error {
		out = append(out, a)
		return nil
	})
	return out, err
}
