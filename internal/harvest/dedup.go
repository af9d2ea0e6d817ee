package harvest

// SeenSet 本次运行已输出的记录标识
// 只增不减,生命周期为一次采集
type SeenSet struct {
	keys map[string]struct{}
}

// NewSeenSet 创建空集合
func NewSeenSet() *SeenSet {
	return &SeenSet{keys: make(map[string]struct{})}
}

// Seen 标识是否已出现
func (s *SeenSet) Seen(identity string) bool {
	_, ok := s.keys[identity]
	return ok
}

// Mark 记录标识
func (s *SeenSet) Mark(identity string) {
	s.keys[identity] = struct{}{}
}

// Len 已记录的标识数量
func (s *SeenSet) Len() int {
	return len(s.keys)
}
