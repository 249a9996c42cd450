// Copyright 2025 CacheFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSimulate(t *testing.T) {
	sub, _, err := rootCmd.Find([]string{"simulate"})

	require.NoError(t, err)
	assert.Equal(t, "simulate", sub.Name())
}

func TestRootCommandBindsConfigFlags(t *testing.T) {
	for _, name := range []string{
		"config-file",
		"log-severity",
		"max-window-pages",
		"page-size-bytes",
		"memory-clamp",
	} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "flag %s should be registered", name)
	}
}

func TestSimulateCommandFlags(t *testing.T) {
	sub, _, err := rootCmd.Find([]string{"simulate"})
	require.NoError(t, err)

	for _, name := range []string{"pattern", "reads", "trace-file", "forced"} {
		assert.NotNil(t, sub.Flags().Lookup(name), "flag %s should be registered", name)
	}
}
