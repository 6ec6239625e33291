package interchange

import "strings"

// NameTable 名称（小写）到 ID 的映射，每批导入重新构建
type NameTable map[string]uint

// NewNameTable 构建名称表，同名（忽略大小写）时后出现的覆盖先出现的
func NewNameTable(items []Named) NameTable {
	t := make(NameTable, len(items))
	for _, it := range items {
		t[strings.ToLower(it.Name)] = it.ID
	}
	return t
}

// Resolve 解析名称列表，未找到的名称直接丢弃，结果去重并保持出现顺序
func (t NameTable) Resolve(names []string) []uint {
	ids := make([]uint, 0, len(names))
	seen := make(map[uint]struct{}, len(names))
	for _, name := range names {
		id, ok := t[strings.ToLower(name)]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
