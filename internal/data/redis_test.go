package data

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
)

// fakeRedis serves the commands the data layer issues from memory. It is
// installed as a client hook, so nothing ever dials a server.
type fakeRedis struct {
	mu      sync.Mutex
	strings map[string]string
	zsets   map[string]map[string]float64
	calls   map[string]int
	failDel error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		strings: map[string]string{},
		zsets:   map[string]map[string]float64{},
		calls:   map[string]int{},
	}
}

// withRedis attaches a client backed by f to d.
func withRedis(t *testing.T, d *Data, f *fakeRedis) {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: "fake:6379", MaxRetries: -1})
	rdb.AddHook(f)
	t.Cleanup(func() { _ = rdb.Close() })
	d.rdb = rdb
}

func (f *fakeRedis) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeRedis) get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.strings[key]
	return v, ok
}

func (f *fakeRedis) put(key, val string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.strings[key] = val
}

func (f *fakeRedis) keys(pattern string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k := range f.strings {
		if ok, _ := path.Match(pattern, k); ok {
			out = append(out, k)
		}
	}
	for k := range f.zsets {
		if ok, _ := path.Match(pattern, k); ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (f *fakeRedis) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("fake redis does not dial")
	}
}

func (f *fakeRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		f.apply(cmd)
		return cmd.Err()
	}
}

func (f *fakeRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			f.apply(cmd)
		}
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}
		return nil
	}
}

func (f *fakeRedis) apply(cmd redis.Cmder) {
	args := cmd.Args()
	keys := make([]string, 0, len(args))
	for _, a := range args[1:] {
		keys = append(keys, fmt.Sprint(a))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[cmd.Name()]++

	switch c := cmd.(type) {
	case *redis.StatusCmd:
		switch cmd.Name() {
		case "set":
			v := args[2]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			f.strings[keys[0]] = fmt.Sprint(v)
		}
		c.SetVal("OK")
	case *redis.SliceCmd:
		c.SetVal(nil)
	case *redis.StringCmd:
		v, ok := f.strings[keys[0]]
		if !ok {
			c.SetErr(redis.Nil)
			return
		}
		c.SetVal(v)
	case *redis.IntCmd:
		switch cmd.Name() {
		case "del":
			if f.failDel != nil {
				c.SetErr(f.failDel)
				return
			}
			var n int64
			for _, k := range keys {
				if _, ok := f.strings[k]; ok {
					delete(f.strings, k)
					n++
				}
				if _, ok := f.zsets[k]; ok {
					delete(f.zsets, k)
					n++
				}
			}
			c.SetVal(n)
		case "incr":
			n, _ := strconv.ParseInt(f.strings[keys[0]], 10, 64)
			n++
			f.strings[keys[0]] = strconv.FormatInt(n, 10)
			c.SetVal(n)
		case "zadd":
			z := f.zsets[keys[0]]
			if z == nil {
				z = map[string]float64{}
				f.zsets[keys[0]] = z
			}
			for i := 2; i+1 < len(args); i += 2 {
				score, _ := args[i].(float64)
				z[fmt.Sprint(args[i+1])] = score
			}
			c.SetVal(1)
		default:
			c.SetErr(fmt.Errorf("fake redis: unsupported %s", cmd.Name()))
		}
	case *redis.ZSliceCmd:
		z := f.zsets[keys[0]]
		out := make([]redis.Z, 0, len(z))
		for m, s := range z {
			out = append(out, redis.Z{Member: m, Score: s})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
		stop, _ := strconv.Atoi(keys[2])
		if stop >= 0 && stop+1 < len(out) {
			out = out[:stop+1]
		}
		c.SetVal(out)
	case *redis.ScanCmd:
		// one page holding every match, cursor 0 ends the iteration
		pattern := "*"
		for i := 0; i+1 < len(keys); i++ {
			if keys[i] == "match" {
				pattern = keys[i+1]
			}
		}
		var page []string
		for k := range f.strings {
			if ok, _ := path.Match(pattern, k); ok {
				page = append(page, k)
			}
		}
		sort.Strings(page)
		c.SetVal(page, 0)
	default:
		cmd.SetErr(fmt.Errorf("fake redis: unsupported %s", cmd.Name()))
	}
}
