package label

// unionFind is a disjoint-set forest over dense ids, with path halving and
// union by size.
type unionFind struct {
	parent []int
	size   []int
}

func (u *unionFind) add() int {
	id := len(u.parent)
	u.parent = append(u.parent, id)
	u.size = append(u.size, 1)
	return id
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.size[ra] < u.size[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
}
