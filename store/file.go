package store

import (
	"encoding/json"
	"io/ioutil"
	"log"
	"os"
	"sync"
	"time"
)

// FileSubscriptions keeps the subscription map in a single JSON file.
// Reads are permissive: a missing or corrupt file is an empty map, never an
// error. Write failures are logged and swallowed; the in-memory view stays
// authoritative for the rest of the process's life.
type FileSubscriptions struct {
	path string
	mu   sync.Mutex
}

func NewFileSubscriptions(path string) *FileSubscriptions {
	return &FileSubscriptions{path: path}
}

func (f *FileSubscriptions) Load() (map[string]Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load(), nil
}

func (f *FileSubscriptions) load() map[string]Subscription {
	subs := make(map[string]Subscription)
	data, err := ioutil.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("unable to read subscriptions file: %v", err.Error())
		}
		return subs
	}
	err = json.Unmarshal(data, &subs)
	if err != nil {
		log.Printf("subscriptions file is corrupt, starting empty: %v", err.Error())
		return make(map[string]Subscription)
	}
	return subs
}

func (f *FileSubscriptions) Save(subs map[string]Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.save(subs)
	return nil
}

func (f *FileSubscriptions) save(subs map[string]Subscription) {
	data, err := json.Marshal(subs)
	if err != nil {
		log.Printf("unable to marshal subscriptions: %v", err.Error())
		return
	}
	err = ioutil.WriteFile(f.path, data, 0644)
	if err != nil {
		log.Printf("unable to save subscriptions file: %v", err.Error())
	}
}

func (f *FileSubscriptions) Put(channelId string, sub Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs := f.load()
	subs[channelId] = sub
	f.save(subs)
	return nil
}

func (f *FileSubscriptions) Remove(channelId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs := f.load()
	if _, ok := subs[channelId]; !ok {
		return nil
	}
	delete(subs, channelId)
	f.save(subs)
	return nil
}

func (f *FileSubscriptions) Lookup(channelId string) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.load()[channelId]
	if !ok {
		return Subscription{}, ErrNotFound
	}
	return sub, nil
}

func (f *FileSubscriptions) RecordLease(channelId string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs := f.load()
	sub, ok := subs[channelId]
	if !ok {
		return ErrNotFound
	}
	sub.LeaseExpiresAt = &expiresAt
	subs[channelId] = sub
	f.save(subs)
	return nil
}

func (f *FileSubscriptions) LeaseExpiring(deadline time.Time) (map[string]Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	expiring := make(map[string]Subscription)
	for channelId, sub := range f.load() {
		if sub.LeaseExpiresAt == nil || sub.LeaseExpiresAt.Before(deadline) {
			expiring[channelId] = sub
		}
	}
	return expiring, nil
}

// FileSeenVideos keeps the seen set as a JSON array of video ids. The set is
// loaded once at construction and cached for the process lifetime; every Add
// rewrites the whole file. O(n) per add is fine for the expected scale of
// tens to low thousands of ids.
type FileSeenVideos struct {
	path string
	mu   sync.Mutex
	seen map[string]struct{}
	// order keeps the file stable across rewrites
	order []string
}

func NewFileSeenVideos(path string) *FileSeenVideos {
	f := &FileSeenVideos{
		path: path,
		seen: make(map[string]struct{}),
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("unable to read seen videos file: %v", err.Error())
		}
		return f
	}
	var ids []string
	err = json.Unmarshal(data, &ids)
	if err != nil {
		log.Printf("seen videos file is corrupt, starting empty: %v", err.Error())
		return f
	}
	for _, id := range ids {
		if _, ok := f.seen[id]; ok {
			continue
		}
		f.seen[id] = struct{}{}
		f.order = append(f.order, id)
	}
	return f
}

func (f *FileSeenVideos) Contains(videoId string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.seen[videoId]
	return ok
}

func (f *FileSeenVideos) Add(videoId string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seen[videoId]; ok {
		return
	}
	f.seen[videoId] = struct{}{}
	f.order = append(f.order, videoId)
	data, err := json.Marshal(f.order)
	if err != nil {
		log.Printf("unable to marshal seen videos: %v", err.Error())
		return
	}
	err = ioutil.WriteFile(f.path, data, 0644)
	if err != nil {
		log.Printf("unable to save seen videos file: %v", err.Error())
	}
}
