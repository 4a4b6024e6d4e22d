package prog

import (
	"github.com/coregx/rejit/ast"
)

// DefaultMaxInstructions caps program size when Config.MaxInstructions
// is zero. Search time is linear in program size, so the cap also
// bounds per-byte work.
const DefaultMaxInstructions = 4096

// Config controls compilation.
type Config struct {
	// MaxInstructions caps the compiled program size. Zero means
	// DefaultMaxInstructions.
	MaxInstructions int

	// Anchored restricts matches to the search start position.
	Anchored bool
}

// DefaultConfig returns the default compilation config.
func DefaultConfig() Config {
	return Config{MaxInstructions: DefaultMaxInstructions}
}

// Compile lowers an AST into a Program.
//
// The whole pattern is wrapped as save(0) body save(1) match, so the
// compiled program always records the full match extent in slots 0
// and 1. Returns ErrPatternTooLarge (wrapped in a CompileError) when
// the instruction budget is exceeded.
func Compile(node *ast.Node, cfg Config) (*Program, error) {
	if cfg.MaxInstructions <= 0 {
		cfg.MaxInstructions = DefaultMaxInstructions
	}
	c := &compiler{max: cfg.MaxInstructions}

	if _, err := c.emit(Inst{Op: OpSave, Slot: 0, Next: 1}); err != nil {
		return nil, &CompileError{Err: err}
	}
	// LIFO stack: the tail runs after the body.
	c.push(func(c *compiler) error {
		pc, err := c.emit(Inst{Op: OpSave, Slot: 1})
		if err != nil {
			return err
		}
		c.insts[pc].Next = pc + 1
		_, err = c.emit(Inst{Op: OpMatch})
		return err
	})
	c.pushNode(node)

	for len(c.work) > 0 {
		t := c.work[len(c.work)-1]
		c.work = c.work[:len(c.work)-1]
		if err := t(c); err != nil {
			return nil, &CompileError{Err: err}
		}
	}

	p := &Program{
		insts:    c.insts,
		start:    0,
		numSlots: 2 * (node.MaxCaptureIndex() + 1),
		anchored: cfg.Anchored,
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// task is one unit of deferred compilation work. The compiler drives
// an explicit task stack instead of recursing over the AST, so
// pattern nesting depth never translates into call-stack depth.
type task func(*compiler) error

type compiler struct {
	insts []Inst
	max   int
	work  []task
}

func (c *compiler) push(t task) {
	c.work = append(c.work, t)
}

// pushSeq schedules tasks so they execute in slice order.
func (c *compiler) pushSeq(tasks []task) {
	for i := len(tasks) - 1; i >= 0; i-- {
		c.work = append(c.work, tasks[i])
	}
}

func (c *compiler) pushNode(n *ast.Node) {
	c.push(func(c *compiler) error {
		return c.compileNode(n)
	})
}

func (c *compiler) pc() uint32 {
	return uint32(len(c.insts))
}

func (c *compiler) emit(in Inst) (uint32, error) {
	if len(c.insts) >= c.max {
		return 0, ErrPatternTooLarge
	}
	pc := uint32(len(c.insts))
	c.insts = append(c.insts, in)
	return pc, nil
}

func (c *compiler) compileNode(n *ast.Node) error {
	switch n.Kind {
	case ast.KindEmpty:
		return nil

	case ast.KindLiteral:
		pc, err := c.emit(Inst{Op: OpByte, Ranges: n.Ranges})
		if err != nil {
			return err
		}
		c.insts[pc].Next = pc + 1
		return nil

	case ast.KindConcat:
		for i := len(n.Children) - 1; i >= 0; i-- {
			c.pushNode(n.Children[i])
		}
		return nil

	case ast.KindAlternate:
		return c.compileAlternate(n.Children)

	case ast.KindGroup:
		open, err := c.emit(Inst{Op: OpSave, Slot: uint32(2 * n.Index)})
		if err != nil {
			return err
		}
		c.insts[open].Next = open + 1
		body := n.Body()
		c.push(func(c *compiler) error {
			pc, err := c.emit(Inst{Op: OpSave, Slot: uint32(2*n.Index + 1)})
			if err != nil {
				return err
			}
			c.insts[pc].Next = pc + 1
			return nil
		})
		c.pushNode(body)
		return nil

	case ast.KindRepeat:
		return c.compileRepeat(n)

	default:
		return &ConsistencyError{Message: "unknown ast node", PC: c.pc()}
	}
}

// compileAlternate emits a nested split chain. The first branch gets
// the highest priority; every branch but the last ends in a jump to
// the common continuation.
func (c *compiler) compileAlternate(branches []*ast.Node) error {
	jumps := &[]uint32{}
	var tasks []task
	for i, branch := range branches {
		if i == len(branches)-1 {
			tasks = append(tasks, nodeTask(branch))
			continue
		}
		splitPC := new(uint32)
		tasks = append(tasks,
			func(c *compiler) error {
				pc, err := c.emit(Inst{Op: OpSplit})
				if err != nil {
					return err
				}
				*splitPC = pc
				c.insts[pc].Next = pc + 1
				return nil
			},
			nodeTask(branch),
			func(c *compiler) error {
				jpc, err := c.emit(Inst{Op: OpJump})
				if err != nil {
					return err
				}
				*jumps = append(*jumps, jpc)
				// The next branch starts right after the jump.
				c.insts[*splitPC].Alt = jpc + 1
				return nil
			},
		)
	}
	tasks = append(tasks, func(c *compiler) error {
		end := c.pc()
		for _, jpc := range *jumps {
			c.insts[jpc].Next = end
		}
		return nil
	})
	c.pushSeq(tasks)
	return nil
}

// compileRepeat emits Min mandatory copies of the body, then either a
// back-edge (unbounded) or Max-Min forked optional copies. Greedy
// repeats put the iterating branch first in each split; lazy repeats
// swap the operands.
func (c *compiler) compileRepeat(n *ast.Node) error {
	body := n.Body()
	min, max := n.Min, n.Max

	var tasks []task
	loopStart := new(uint32)
	for i := 0; i < min; i++ {
		if i == min-1 {
			tasks = append(tasks, markPC(loopStart))
		}
		tasks = append(tasks, nodeTask(body))
	}

	switch {
	case max == -1 && min > 0:
		// body+ : loop back from a trailing split.
		tasks = append(tasks, func(c *compiler) error {
			pc, err := c.emit(Inst{Op: OpSplit})
			if err != nil {
				return err
			}
			c.insts[pc].Next = *loopStart
			c.insts[pc].Alt = pc + 1
			if !n.Greedy {
				c.insts[pc].Next, c.insts[pc].Alt = c.insts[pc].Alt, c.insts[pc].Next
			}
			return nil
		})

	case max == -1:
		// body* : leading split, body, jump back.
		tasks = append(tasks,
			markPC(loopStart),
			func(c *compiler) error {
				_, err := c.emit(Inst{Op: OpSplit})
				return err
			},
			nodeTask(body),
			func(c *compiler) error {
				jpc, err := c.emit(Inst{Op: OpJump})
				if err != nil {
					return err
				}
				c.insts[jpc].Next = *loopStart
				split := &c.insts[*loopStart]
				split.Next = *loopStart + 1
				split.Alt = jpc + 1
				if !n.Greedy {
					split.Next, split.Alt = split.Alt, split.Next
				}
				return nil
			},
		)

	default:
		// body{min,max} : max-min optional forked copies sharing one
		// exit point.
		splits := &[]uint32{}
		for i := min; i < max; i++ {
			tasks = append(tasks,
				func(c *compiler) error {
					pc, err := c.emit(Inst{Op: OpSplit})
					if err != nil {
						return err
					}
					*splits = append(*splits, pc)
					c.insts[pc].Next = pc + 1
					return nil
				},
				nodeTask(body),
			)
		}
		tasks = append(tasks, func(c *compiler) error {
			end := c.pc()
			for _, pc := range *splits {
				c.insts[pc].Alt = end
				if !n.Greedy {
					c.insts[pc].Next, c.insts[pc].Alt = c.insts[pc].Alt, c.insts[pc].Next
				}
			}
			return nil
		})
	}

	c.pushSeq(tasks)
	return nil
}

func nodeTask(n *ast.Node) task {
	return func(c *compiler) error {
		return c.compileNode(n)
	}
}

// markPC records the current PC when the task runs.
func markPC(dst *uint32) task {
	return func(c *compiler) error {
		*dst = c.pc()
		return nil
	}
}
