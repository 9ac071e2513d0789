package challenge

// fallbackChallenges is served whenever the generator is disabled or fails.
// Every difficulty has at least one entry so a duel can always start.
var fallbackChallenges = []Challenge{
	{
		ID:          "fallback-sum-of-array",
		Title:       "Sum of Array",
		Description: "Read a list of integers and print their sum.\n\nThe first line contains an integer N, the number of elements. The second line contains N space-separated integers.",
		Difficulty:  "easy",
		InputSpec:   "First line: integer N (1 <= N <= 1000). Second line: N space-separated integers.",
		OutputSpec:  "A single integer, the sum of the N values.",
		Examples: []Example{
			{Input: "3\n1 2 3", Output: "6", Explanation: "1 + 2 + 3 = 6"},
		},
		TestCases: []TestCase{
			{Input: "3\n1 2 3", ExpectedOutput: "6"},
			{Input: "5\n10 20 30 40 50", ExpectedOutput: "150"},
			{Input: "1\n-7", ExpectedOutput: "-7"},
			{Input: "4\n0 0 0 0", ExpectedOutput: "0"},
		},
		Boilerplate: map[string]string{
			"python":     "n = int(input())\nvalues = list(map(int, input().split()))\n# print the sum\n",
			"javascript": "const lines = require('fs').readFileSync(0, 'utf8').split('\\n');\nconst values = lines[1].trim().split(' ').map(Number);\n// print the sum\n",
		},
		Source: "fallback",
	},
	{
		ID:          "fallback-reverse-string",
		Title:       "Reverse String",
		Description: "Read a single line and print it reversed.",
		Difficulty:  "easy",
		InputSpec:   "One line containing a string of up to 1000 visible characters.",
		OutputSpec:  "The input string reversed.",
		Examples: []Example{
			{Input: "hello", Output: "olleh"},
		},
		TestCases: []TestCase{
			{Input: "hello", ExpectedOutput: "olleh"},
			{Input: "racecar", ExpectedOutput: "racecar"},
			{Input: "ab", ExpectedOutput: "ba"},
			{Input: "x", ExpectedOutput: "x"},
		},
		Boilerplate: map[string]string{
			"python":     "s = input()\n# print s reversed\n",
			"javascript": "const s = require('fs').readFileSync(0, 'utf8').trim();\n// print s reversed\n",
		},
		Source: "fallback",
	},
	{
		ID:          "fallback-balanced-brackets",
		Title:       "Balanced Brackets",
		Description: "Read a string of brackets and decide whether it is balanced.\n\nThe string contains only the characters ()[]{}. Print \"true\" if every opening bracket is closed by the matching bracket in the correct order, otherwise print \"false\".",
		Difficulty:  "medium",
		InputSpec:   "One line containing a bracket string of length up to 10000.",
		OutputSpec:  "Either \"true\" or \"false\".",
		Examples: []Example{
			{Input: "([]){}", Output: "true"},
			{Input: "([)]", Output: "false", Explanation: "The square bracket closes before the parenthesis."},
		},
		TestCases: []TestCase{
			{Input: "([]){}", ExpectedOutput: "true"},
			{Input: "([)]", ExpectedOutput: "false"},
			{Input: "(((", ExpectedOutput: "false"},
			{Input: "{[()]}", ExpectedOutput: "true"},
			{Input: ")", ExpectedOutput: "false"},
		},
		Source: "fallback",
	},
	{
		ID:          "fallback-longest-run",
		Title:       "Longest Run",
		Description: "Read a string and print the length of its longest run of identical consecutive characters.",
		Difficulty:  "medium",
		InputSpec:   "One line containing a non-empty string of lowercase letters.",
		OutputSpec:  "A single integer.",
		Examples: []Example{
			{Input: "aabbbcc", Output: "3", Explanation: "The run of b has length 3."},
		},
		TestCases: []TestCase{
			{Input: "aabbbcc", ExpectedOutput: "3"},
			{Input: "abcdef", ExpectedOutput: "1"},
			{Input: "zzzz", ExpectedOutput: "4"},
			{Input: "abbcccbb", ExpectedOutput: "3"},
		},
		Source: "fallback",
	},
	{
		ID:          "fallback-matrix-diagonal",
		Title:       "Matrix Diagonal Difference",
		Description: "Read a square matrix and print the absolute difference between the sums of its two diagonals.",
		Difficulty:  "hard",
		InputSpec:   "First line: integer N (1 <= N <= 100). Then N lines each containing N space-separated integers.",
		OutputSpec:  "A single non-negative integer.",
		Examples: []Example{
			{Input: "3\n11 2 4\n4 5 6\n10 8 -12", Output: "15", Explanation: "|(11+5-12) - (4+5+10)| = |4 - 19| = 15"},
		},
		TestCases: []TestCase{
			{Input: "3\n11 2 4\n4 5 6\n10 8 -12", ExpectedOutput: "15"},
			{Input: "1\n5", ExpectedOutput: "0"},
			{Input: "2\n1 2\n3 4", ExpectedOutput: "0"},
			{Input: "3\n1 0 0\n0 1 0\n0 0 1", ExpectedOutput: "3"},
		},
		Source: "fallback",
	},
}
