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

// Package drspec is the embeddable client API over a project's
// contract index. External collaborators — contract-generation agents,
// editor integrations, visualization tooling — use it instead of
// touching the database directly:
//
//	client, err := drspec.Open(ctx, projectRoot)
//	if err != nil { ... }
//	defer client.Close()
//
//	item, err := client.NextWorkItem(ctx)
//	// ... generate a contract for item.FunctionID ...
//	status, err := client.SubmitContract(ctx, item.FunctionID, contractJSON, 85, nil)
//
// Every method returns the same structured errors the CLI's JSON
// envelope carries, so callers can surface codes like
// FUNCTION_NOT_FOUND or INVALID_SCHEMA directly.
package drspec
