package training

import (
	"math/rand/v2"
	"strings"

	"github.com/JaimeStill/jobcheck/pkg/textnorm"
)

// SyntheticOptions controls the substitute corpus used when no dataset file
// is available.
type SyntheticOptions struct {
	Size      int
	Seed      uint64
	FakeRatio float64
}

// DefaultSyntheticOptions returns 2000 rows, seed 42 and 15% fraudulent.
func DefaultSyntheticOptions() SyntheticOptions {
	return SyntheticOptions{Size: 2000, Seed: 42, FakeRatio: 0.15}
}

var (
	realTitles = []string{
		"Software Engineer", "Data Analyst", "Marketing Manager",
		"Product Designer", "Sales Representative", "DevOps Engineer",
		"Project Manager", "Business Analyst", "UX Researcher",
		"Frontend Developer", "Backend Developer", "Full Stack Developer",
		"Machine Learning Engineer", "Cloud Architect", "QA Engineer",
		"Technical Writer", "Scrum Master", "Database Administrator",
		"System Administrator", "Security Analyst", "HR Manager",
		"Financial Analyst", "Content Writer", "Graphic Designer",
		"Customer Support Lead", "Operations Manager", "Supply Chain Analyst",
	}

	realCompanies = []string{
		"Google", "Microsoft", "Amazon", "Apple", "Meta",
		"Netflix", "Salesforce", "Adobe", "IBM", "Intel",
		"Oracle", "Cisco", "VMware", "Spotify", "Stripe",
		"Airbnb", "Uber", "Lyft", "Twitter", "LinkedIn",
		"Accenture", "Deloitte", "McKinsey", "Goldman Sachs",
	}

	realDescriptions = []string{
		"We are looking for a talented {title} to join our engineering team. " +
			"You will work on cutting-edge projects using modern technologies. " +
			"Requirements include a BS in Computer Science and 3+ years experience. " +
			"We offer competitive salary, health benefits, 401k, and remote work options.",
		"Join {company} as a {title}. In this role you will collaborate with " +
			"cross-functional teams to deliver high-quality solutions. We value " +
			"innovation and continuous learning. Must have strong communication skills " +
			"and relevant industry experience. Full-time position with benefits.",
		"Exciting opportunity at {company} for an experienced {title}. " +
			"Responsibilities include designing systems, mentoring juniors, and " +
			"driving technical excellence. We provide stock options, unlimited PTO, " +
			"and professional development budget. Apply now with your resume.",
		"{company} is hiring a {title} to help scale our platform. " +
			"This is a hybrid role based in our San Francisco office. " +
			"We're looking for someone with 5+ years of experience and a passion " +
			"for building reliable, scalable systems. Competitive compensation package.",
	}

	fakeTitles = []string{
		"Data Entry Clerk", "Mystery Shopper", "Home Assistant",
		"Online Survey Taker", "Account Manager", "Administrative Assistant",
	}

	fakeDescriptions = []string{
		"EARN $5000 WEEKLY from home!!! No experience needed. " +
			"Just send us your personal details and bank account information to get started. " +
			"This is a guaranteed income opportunity. Act now before positions fill up!!! " +
			"Wire transfer fee of $200 required to secure your spot.",
		"Work from home and make thousands!!! Send your SSN and ID to apply. " +
			"No interview needed, you're already hired! Just pay a small processing " +
			"fee of $150 and start earning immediately. Limited spots available!!!",
		"URGENT HIRING - No qualifications needed. Salary $10000/month. " +
			"Click the link below to submit your credit card details for background check. " +
			"This is a confidential position and you must not share. Reply ASAP!!!",
		"Congratulations! You've been selected for a high-paying data entry job. " +
			"Work only 2 hours a day and earn $8000 monthly. Send upfront fee of $300 " +
			"for training materials. No experience required. Apply with personal info now!",
		"Make money fast! Easy online job, earn $500/day doing simple tasks. " +
			"No resume needed. Pay $100 registration fee to start. " +
			"Provide your banking details for direct deposit setup. Don't miss out!!!",
	}
)

// Synthetic generates a deterministic labelled corpus of templated postings.
// The same options always yield the same rows in the same order.
func Synthetic(opts SyntheticOptions) []Row {
	if opts.Size <= 0 {
		return nil
	}

	rng := rand.New(rand.NewPCG(opts.Seed, uint64(opts.Size)))
	pick := func(items []string) string {
		return items[rng.IntN(len(items))]
	}

	nFake := int(float64(opts.Size) * opts.FakeRatio)
	rows := make([]Row, 0, opts.Size)

	for range opts.Size - nFake {
		title := pick(realTitles)
		company := pick(realCompanies)
		desc := strings.NewReplacer("{title}", title, "{company}", company).Replace(pick(realDescriptions))

		rows = append(rows, Row{
			Document: textnorm.Document{
				Title:          title,
				CompanyProfile: company + " is a leading technology company.",
				Description:    desc,
				Requirements:   "Bachelor's degree required. 2+ years experience preferred.",
				Benefits:       "Health insurance, 401k match, remote work flexibility.",
			},
			Label: 0,
		})
	}

	for range nFake {
		rows = append(rows, Row{
			Document: textnorm.Document{
				Title:       pick(fakeTitles),
				Description: pick(fakeDescriptions),
			},
			Label: 1,
		})
	}

	rng.Shuffle(len(rows), func(i, j int) {
		rows[i], rows[j] = rows[j], rows[i]
	})

	return rows
}
