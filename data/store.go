package data

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/aarondl/uqserv/irc"
	"github.com/cznic/kv"
	"github.com/pkg/errors"
	"gopkg.in/inconshreveable/log15.v2"
)

var (
	nMaxCache = 1000

	// ErrNotFound is returned when a record doesn't exist.
	ErrNotFound = errors.New("data: Record not found")
)

const (
	chanPrefix    = "chan:"
	nickPrefix    = "nick:"
	accountPrefix = "acct:"
)

// StoreProvider opens the database behind a Store.
type StoreProvider func() (*kv.DB, error)

// MemStoreProvider keeps the store in memory.
func MemStoreProvider() (*kv.DB, error) {
	return kv.CreateMem(&kv.Options{})
}

// FileStoreProvider opens the store at filename, creating it if it doesn't
// exist.
func FileStoreProvider(filename string) StoreProvider {
	return func() (*kv.DB, error) {
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			return kv.Create(filename, &kv.Options{})
		}
		return kv.Open(filename, &kv.Options{})
	}
}

// Store keeps registered channels, nicks and accounts in a kv database as
// json, caching what it has loaded.
type Store struct {
	db  *kv.DB
	log log15.Logger

	chans    map[string]*ChannelInfo
	nicks    map[string]*NickAlias
	accounts map[string]*Account
}

// NewStore opens a store using the provider.
func NewStore(provider StoreProvider, logger log15.Logger) (*Store, error) {
	db, err := provider()
	if err != nil {
		return nil, errors.Wrap(err, "data: failed to open store")
	}
	if logger == nil {
		logger = log15.New()
		logger.SetHandler(log15.DiscardHandler())
	}

	s := &Store{
		db:  db,
		log: logger.New("pkg", "store"),
	}
	s.resetCache()
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) resetCache() {
	s.chans = make(map[string]*ChannelInfo)
	s.nicks = make(map[string]*NickAlias)
	s.accounts = make(map[string]*Account)
}

// checkCacheLimits dumps the cache when adding one more would overflow it.
func (s *Store) checkCacheLimits() {
	if len(s.chans)+len(s.nicks)+len(s.accounts)+1 > nMaxCache {
		s.resetCache()
	}
}

func (s *Store) put(key string, v interface{}) error {
	serialized, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "data: failed to encode %s", key)
	}
	if err = s.db.Set([]byte(key), serialized); err != nil {
		return errors.Wrapf(err, "data: failed to store %s", key)
	}
	return nil
}

func (s *Store) get(key string, v interface{}) (bool, error) {
	serialized, err := s.db.Get(nil, []byte(key))
	if err != nil {
		return false, errors.Wrapf(err, "data: failed to fetch %s", key)
	}
	if serialized == nil {
		return false, nil
	}
	if err = json.Unmarshal(serialized, v); err != nil {
		return false, errors.Wrapf(err, "data: failed to decode %s", key)
	}
	return true, nil
}

// FindChannel loads a channel registration.
func (s *Store) FindChannel(name string) *ChannelInfo {
	key := irc.Fold(name)
	if ci, ok := s.chans[key]; ok {
		return ci
	}

	ci := &ChannelInfo{}
	found, err := s.get(chanPrefix+key, ci)
	if err != nil {
		s.log.Error("channel lookup failed", "channel", name, "err", err)
		return nil
	}
	if !found {
		return nil
	}

	s.checkCacheLimits()
	s.chans[key] = ci
	return ci
}

// SaveChannel writes a channel registration.
func (s *Store) SaveChannel(ci *ChannelInfo) error {
	key := irc.Fold(ci.Name)
	if err := s.put(chanPrefix+key, ci); err != nil {
		return err
	}
	s.checkCacheLimits()
	s.chans[key] = ci
	return nil
}

// DropChannel deletes a channel registration.
func (s *Store) DropChannel(name string) error {
	key := irc.Fold(name)
	if ci, ok := s.chans[key]; ok && ci.c != nil {
		ci.c.info = nil
		ci.c = nil
	}
	delete(s.chans, key)
	return s.db.Delete([]byte(chanPrefix + key))
}

// Channels loads every channel registration ordered by name.
func (s *Store) Channels() []*ChannelInfo {
	enum, err := s.db.SeekFirst()
	if err == io.EOF {
		return nil
	} else if err != nil {
		s.log.Error("channel enumeration failed", "err", err)
		return nil
	}

	var chans []*ChannelInfo
	prefix := []byte(chanPrefix)
	for {
		k, _, err := enum.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			s.log.Error("channel enumeration failed", "err", err)
			break
		}
		if !bytes.HasPrefix(k, prefix) {
			continue
		}
		if ci := s.FindChannel(string(k[len(prefix):])); ci != nil {
			chans = append(chans, ci)
		}
	}

	sort.Slice(chans, func(i, j int) bool {
		return irc.Fold(chans[i].Name) < irc.Fold(chans[j].Name)
	})
	return chans
}

// FindNick loads a registered nick with its account.
func (s *Store) FindNick(nick string) *NickAlias {
	key := irc.Fold(nick)
	if na, ok := s.nicks[key]; ok {
		return na
	}

	na := &NickAlias{}
	found, err := s.get(nickPrefix+key, na)
	if err != nil {
		s.log.Error("nick lookup failed", "nick", nick, "err", err)
		return nil
	}
	if !found {
		return nil
	}
	na.Account = s.FindAccount(na.AccountName)

	s.checkCacheLimits()
	s.nicks[key] = na
	return na
}

// SaveNick writes a registered nick. Its account is saved too.
func (s *Store) SaveNick(na *NickAlias) error {
	if na.Account != nil {
		na.AccountName = na.Account.Display
		if err := s.SaveAccount(na.Account); err != nil {
			return err
		}
	}

	key := irc.Fold(na.Nick)
	if err := s.put(nickPrefix+key, na); err != nil {
		return err
	}
	s.checkCacheLimits()
	s.nicks[key] = na
	return nil
}

// DropNick deletes a registered nick.
func (s *Store) DropNick(nick string) error {
	key := irc.Fold(nick)
	delete(s.nicks, key)
	return s.db.Delete([]byte(nickPrefix + key))
}

// FindAccount loads an account.
func (s *Store) FindAccount(display string) *Account {
	if len(display) == 0 {
		return nil
	}
	key := irc.Fold(display)
	if acct, ok := s.accounts[key]; ok {
		return acct
	}

	acct := &Account{}
	found, err := s.get(accountPrefix+key, acct)
	if err != nil {
		s.log.Error("account lookup failed", "account", display, "err", err)
		return nil
	}
	if !found {
		return nil
	}

	s.checkCacheLimits()
	s.accounts[key] = acct
	return acct
}

// SaveAccount writes an account.
func (s *Store) SaveAccount(acct *Account) error {
	key := irc.Fold(acct.Display)
	if err := s.put(accountPrefix+key, acct); err != nil {
		return err
	}
	s.checkCacheLimits()
	s.accounts[key] = acct
	return nil
}

// Register creates an account with a nick grouped under it.
func (s *Store) Register(nick, password, email string) (*NickAlias, error) {
	if s.FindNick(nick) != nil {
		return nil, errors.Errorf("data: nick %s is already registered", nick)
	}

	acct, err := NewAccount(nick, password)
	if err != nil {
		return nil, errors.Wrap(err, "data: failed to hash password")
	}
	acct.Email = email

	na := &NickAlias{Nick: nick, AccountName: acct.Display, Account: acct}
	if err = s.SaveNick(na); err != nil {
		return nil, err
	}
	return na, nil
}
