package database

import (
	"testing"
	"time"
)

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		name         string
		addr         string
		password     string
		wantAddr     string
		wantPassword string
		wantDB       int
		wantErr      bool
	}{
		{
			name:     "Host and port",
			addr:     "localhost:6379",
			wantAddr: "localhost:6379",
		},
		{
			name:         "URL with database",
			addr:         "redis://:secret@cache:6380/2",
			wantAddr:     "cache:6380",
			wantPassword: "secret",
			wantDB:       2,
		},
		{
			name:         "Explicit password wins",
			addr:         "redis://:secret@cache:6380/0",
			password:     "override",
			wantAddr:     "cache:6380",
			wantPassword: "override",
		},
		{
			name:    "Bad scheme",
			addr:    "http://cache:6379",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := redisOptions(tt.addr, tt.password)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("redisOptions() error = %v", err)
			}
			if opts.Addr != tt.wantAddr || opts.Password != tt.wantPassword || opts.DB != tt.wantDB {
				t.Errorf("opts = {Addr:%s Password:%s DB:%d}", opts.Addr, opts.Password, opts.DB)
			}
			if opts.DialTimeout != 5*time.Second {
				t.Errorf("DialTimeout = %v", opts.DialTimeout)
			}
		})
	}
}
