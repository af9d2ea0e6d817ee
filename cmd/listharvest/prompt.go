package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// errNotInteractive 缺少必需参数且无法交互输入
var errNotInteractive = errors.New("缺少必需参数且标准输入不是终端")

// stdinIsTerminal 标准输入是否为终端
func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// stdoutIsTerminal 标准输出是否为终端
func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// prompter 从终端读取缺失的参数
type prompter struct {
	reader *bufio.Reader
	out    io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{reader: bufio.NewReader(in), out: out}
}

// ask 显示提示并读取一行
func (p *prompter) ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	input, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", fmt.Errorf("读取输入失败: %w", err)
	}
	return strings.TrimSpace(input), nil
}

// fillMissing 补全未通过参数提供的搜索URL和目标数量
func (p *prompter) fillMissing(targetURL, quota string) (string, string, error) {
	var err error
	if targetURL == "" {
		if targetURL, err = p.ask("请输入搜索结果页URL"); err != nil {
			return "", "", err
		}
	}
	if quota == "" {
		if quota, err = p.ask("请输入要采集的数量"); err != nil {
			return "", "", err
		}
	}
	return targetURL, quota, nil
}
