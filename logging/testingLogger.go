// Copyright (C) 2019-2026 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package logging

import (
	"testing"
)

// testLoggerOut writes every line into the test log so it is only shown for failing tests.
type testLoggerOut struct {
	t testing.TB
}

func (tlo testLoggerOut) Write(p []byte) (n int, err error) {
	tlo.t.Helper()
	tlo.t.Log(string(p))
	return len(p), nil
}

// TestingLog is a test-only helper to create a Logger that writes into the test log.
func TestingLog(tb testing.TB) Logger {
	l := NewLogger()
	l.SetLevel(Debug)
	l.SetOutput(testLoggerOut{t: tb})
	return l
}
