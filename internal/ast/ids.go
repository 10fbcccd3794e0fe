package ast

// NodeID indexes the node arena; 0 means "no node".
type NodeID uint32

const NoNodeID NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNodeID }
