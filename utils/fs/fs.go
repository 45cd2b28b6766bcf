/*
 * Copyright 2023 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package fs

import (
	"io/fs"
	"path/filepath"
	"sort"
)

// GetFilePaths 返回dir及其子文件夹中文件名匹配任一patterns的文件路径，按路径排序。
// 文件夹名匹配excludedPatterns的子文件夹会被跳过。
func GetFilePaths(dir string, patterns []string, excludedPatterns ...string) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && isMatch(d.Name(), excludedPatterns...) {
				return filepath.SkipDir
			}
			return nil
		}
		if isMatch(d.Name(), patterns...) {
			paths = append(paths, path)
		}
		return nil
	})
	sort.Strings(paths)
	return paths, err
}

func isMatch(name string, patterns ...string) bool {
	for _, item := range patterns {
		if matched, _ := filepath.Match(item, name); matched {
			return true
		}
	}
	return false
}
