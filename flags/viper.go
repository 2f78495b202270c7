// SPDX-License-Identifier: GPL-3.0-or-later

package flags

import "github.com/spf13/viper"

// ViperStore implements dnsprivacy.FlagStore over a *viper.Viper,
// letting the engine's tunables (avoid_bad_private_dns and the latency
// threshold bounds) come from whatever config sources the embedder has
// already set up Viper to read: flags, env vars, config files, or a
// remote provider.
type ViperStore struct {
	v *viper.Viper
}

// NewViperStore wraps v. A nil v uses [viper.New].
func NewViperStore(v *viper.Viper) *ViperStore {
	if v == nil {
		v = viper.New()
	}
	return &ViperStore{v: v}
}

// GetInt implements dnsprivacy.FlagStore.
func (s *ViperStore) GetInt(name string, def int64) int64 {
	if !s.v.IsSet(name) {
		return def
	}
	return s.v.GetInt64(name)
}
