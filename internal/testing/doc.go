// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package testing provides test helpers for drspec integration tests.
//
// # Quick Start
//
// Use SetupTestStore to create a throwaway store with the full schema:
//
//	func TestMyFeature(t *testing.T) {
//	    s := testing.SetupTestStore(t)
//
//	    testing.InsertTestArtifact(t, s, "a.py::f", "f", "a.py", 1, 3)
//
//	    // Run your tests against s.DB()...
//	}
//
// # Seeding Test Data
//
// The package provides helpers for inserting common test entities:
//   - InsertTestArtifact / InsertTestArtifactWithStatus
//   - InsertTestContract
//   - InsertTestQueueEntry
//   - InsertTestDependency
//   - InsertTestReasoningTrace
//
// All helpers call t.Fatalf on failure, so tests read linearly without
// error plumbing.
package testing
