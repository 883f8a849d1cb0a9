/*
 *
 * xk6-webdriver - a JSON Wire Protocol client for k6
 * Copyright (C) 2021 Load Impact
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package common

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/grafana/xk6-webdriver/log"
	"github.com/grafana/xk6-webdriver/metrics"
	"github.com/grafana/xk6-webdriver/storage"
	"github.com/grafana/xk6-webdriver/trace"
	"github.com/grafana/xk6-webdriver/wire"
)

// DefaultWaitTimeout is used by waits called with a zero timeout.
const DefaultWaitTimeout = 5 * time.Second

// Well known capabilities.
const (
	CapabilityBrowserName       = "browserName"
	CapabilityVersion           = "version"
	CapabilityJavaScriptEnabled = "javascriptEnabled"
	CapabilityNativeEvents      = "nativeEvents"
)

var wellKnownCapabilities = []string{
	CapabilityBrowserName,
	CapabilityVersion,
	CapabilityJavaScriptEnabled,
	CapabilityNativeEvents,
}

// SessionOptions configure a new session.
type SessionOptions struct {
	// Capabilities are sent to the server as the desired capabilities.
	// Keys other than the well known ones are passed through as is.
	Capabilities map[string]any
	// BaseURL is prefixed to relative URLs given to Visit.
	BaseURL string
	// DefaultWaitTimeout is used by waits called with a zero timeout.
	DefaultWaitTimeout time.Duration

	Logger  *log.Logger
	Metrics *metrics.Metrics
	// Tracer is only used by Dial, which builds the client.
	Tracer *trace.Tracer
	// Persister writes screenshots.
	Persister storage.FilePersister
}

// NewSessionOptions returns the default session options: a firefox with
// JavaScript enabled.
func NewSessionOptions() *SessionOptions {
	return &SessionOptions{
		Capabilities: map[string]any{
			CapabilityBrowserName:       "firefox",
			CapabilityVersion:           "",
			CapabilityJavaScriptEnabled: true,
			CapabilityNativeEvents:      false,
		},
		DefaultWaitTimeout: DefaultWaitTimeout,
		Persister:          &storage.LocalFilePersister{},
	}
}

// Validate validates the session options.
func (o *SessionOptions) Validate() error {
	if o.DefaultWaitTimeout <= 0 {
		return fmt.Errorf("invalid default wait timeout %s: must be positive", o.DefaultWaitTimeout)
	}
	if bn, ok := o.Capabilities[CapabilityBrowserName]; ok {
		if s, isString := bn.(string); !isString || s == "" {
			return fmt.Errorf("invalid %s capability %v: must be a non-empty string", CapabilityBrowserName, bn)
		}
	}
	if o.BaseURL != "" {
		u, err := url.Parse(o.BaseURL)
		if err != nil {
			return fmt.Errorf("parsing base URL: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return errors.New("base URL must be absolute")
		}
	}

	return nil
}

// desiredCapabilities returns the capabilities in wire order: the well known
// ones first, then the rest sorted by key.
func (o *SessionOptions) desiredCapabilities() *wire.Object {
	caps := wire.NewObject()
	for _, k := range wellKnownCapabilities {
		if v, ok := o.Capabilities[k]; ok {
			caps.Set(k, v)
		}
	}

	var extra []string
	for k := range o.Capabilities {
		if _, ok := caps.Get(k); !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		caps.Set(k, o.Capabilities[k])
	}

	return caps
}

func (o *SessionOptions) logger() *log.Logger {
	if o.Logger == nil {
		return log.NewNullLogger()
	}
	return o.Logger
}

func (o *SessionOptions) persister() storage.FilePersister {
	if o.Persister == nil {
		return &storage.LocalFilePersister{}
	}
	return o.Persister
}
