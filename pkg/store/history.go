package store

import (
	"encoding/binary"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"src.vsh.sh/pkg/store/storedefs"
)

// Each history entry lives under its big-endian sequence number, so
// bolt's key order is sequence order. The value carries the Unix time
// the entry was recorded in its first 8 bytes, then the command text.

func seqKey(seq uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], seq)
	return k[:]
}

func encodeEntry(when time.Time, text string) []byte {
	v := make([]byte, 8+len(text))
	binary.BigEndian.PutUint64(v, uint64(when.Unix()))
	copy(v[8:], text)
	return v
}

func decodeEntry(k, v []byte) storedefs.Cmd {
	return storedefs.Cmd{
		Text: string(v[8:]),
		Seq:  int(binary.BigEndian.Uint64(k)),
		When: time.Unix(int64(binary.BigEndian.Uint64(v[:8])), 0),
	}
}

func (s *dbStore) history(tx *bolt.Tx) *bolt.Bucket {
	return tx.Bucket([]byte(bucketHistory))
}

// NextCmdSeq returns the sequence number the next AddCmd will use.
func (s *dbStore) NextCmdSeq() (int, error) {
	var seq uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		seq = s.history(tx).Sequence() + 1
		return nil
	})
	return int(seq), err
}

// AddCmd appends text to the history and returns its sequence number.
// Repeating the latest entry does not store it again; the existing
// entry's sequence number is returned instead.
func (s *dbStore) AddCmd(text string) (int, error) {
	var seq uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := s.history(tx)
		if k, v := b.Cursor().Last(); k != nil {
			if last := decodeEntry(k, v); last.Text == text {
				seq = uint64(last.Seq)
				return nil
			}
		}
		var err error
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq), encodeEntry(time.Now(), text))
	})
	return int(seq), err
}

// DelCmd removes the entry with the given sequence number. Deleting an
// absent entry is not an error.
func (s *dbStore) DelCmd(seq int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return s.history(tx).Delete(seqKey(uint64(seq)))
	})
}

// Cmd returns the text of the entry with the given sequence number.
func (s *dbStore) Cmd(seq int) (string, error) {
	var text string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := s.history(tx).Get(seqKey(uint64(seq)))
		if v == nil {
			return storedefs.ErrNoMatchingCmd
		}
		text = string(v[8:])
		return nil
	})
	return text, err
}

// CmdsWithSeq returns the entries with sequence numbers in [from, upto).
func (s *dbStore) CmdsWithSeq(from, upto int) ([]storedefs.Cmd, error) {
	var cmds []storedefs.Cmd
	err := s.db.View(func(tx *bolt.Tx) error {
		c := s.history(tx).Cursor()
		for k, v := c.Seek(seqKey(uint64(from))); k != nil; k, v = c.Next() {
			cmd := decodeEntry(k, v)
			if cmd.Seq >= upto {
				break
			}
			cmds = append(cmds, cmd)
		}
		return nil
	})
	return cmds, err
}

// NextCmd returns the first entry at or after the given sequence number
// whose text starts with prefix.
func (s *dbStore) NextCmd(from int, prefix string) (storedefs.Cmd, error) {
	var cmd storedefs.Cmd
	err := s.db.View(func(tx *bolt.Tx) error {
		c := s.history(tx).Cursor()
		for k, v := c.Seek(seqKey(uint64(from))); k != nil; k, v = c.Next() {
			if e := decodeEntry(k, v); strings.HasPrefix(e.Text, prefix) {
				cmd = e
				return nil
			}
		}
		return storedefs.ErrNoMatchingCmd
	})
	return cmd, err
}

// PrevCmd returns the last entry before the given sequence number whose
// text starts with prefix.
func (s *dbStore) PrevCmd(upto int, prefix string) (storedefs.Cmd, error) {
	var cmd storedefs.Cmd
	err := s.db.View(func(tx *bolt.Tx) error {
		c := s.history(tx).Cursor()
		k, v := c.Seek(seqKey(uint64(upto)))
		if k == nil {
			// upto is past the end; start from the newest entry.
			k, v = c.Last()
		} else {
			k, v = c.Prev()
		}
		for ; k != nil; k, v = c.Prev() {
			if e := decodeEntry(k, v); strings.HasPrefix(e.Text, prefix) {
				cmd = e
				return nil
			}
		}
		return storedefs.ErrNoMatchingCmd
	})
	return cmd, err
}

// AllCmds returns every entry in sequence order.
func (s *dbStore) AllCmds() ([]storedefs.Cmd, error) {
	upto, err := s.NextCmdSeq()
	if err != nil {
		return nil, err
	}
	return s.CmdsWithSeq(0, upto)
}
