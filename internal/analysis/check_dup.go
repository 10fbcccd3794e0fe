package analysis

import (
	"fmt"

	"pytidy/internal/source"
)

type duplication struct {
	base
}

func (duplication) Finish(ctx *Context) {
	tree := ctx.Tree
	for _, g := range Duplicates(tree, ctx.Config.DuplicationMinStatements, ctx.Spend) {
		first := g.Blocks[0]
		firstSpan := blockSpan(ctx, first)
		for _, b := range g.Blocks[1:] {
			msg := fmt.Sprintf("%d statements duplicate lines %d-%d", len(b.Stmts), first.FirstLine(tree), first.LastLine(tree))
			f := ctx.At(b.Stmts[0], msg)
			f.Span = blockSpan(ctx, b)
			f.EndLine = b.LastLine(tree)
			ctx.Report(f.WithNote(ctx.File, firstSpan, "first occurrence"))
		}
	}
}

func blockSpan(ctx *Context, b Block) source.Span {
	return source.Span{
		Start: ctx.Tree.Get(b.Stmts[0]).Span.Start,
		End:   ctx.Tree.Get(b.Stmts[len(b.Stmts)-1]).Span.End,
	}
}
